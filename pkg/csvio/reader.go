// Package csvio layers header-aware CSV access over the resource layer.
//
// The on-disk format is deliberately primitive for compatibility with the
// existing report data: the first line is the comma-joined column headings,
// every other line is comma-joined field values, and there is no quoting or
// escaping. A field value containing a comma corrupts both parsing and
// composite-key construction; that is a known limitation of the format,
// not something this package attempts to paper over.
package csvio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/platform-cfm/cfmstore/pkg/resource"
)

// ErrColumnNotFound means a requested column name is absent from the header.
var ErrColumnNotFound = errors.New("csv column not found")

// DefaultKeySeparator joins composite-key parts when none is specified.
const DefaultKeySeparator = ","

// Reader reads a CSV resource record by record. The schema is derived
// exactly once, from the first line; the record sequence is single-pass
// and forward-only.
type Reader struct {
	name    string
	src     *resource.Reader
	headers []string
	index   map[string]int
	fields  []string
}

// OpenReader opens the named CSV resource through the storage-transparent
// layer and consumes its header line.
func OpenReader(ctx context.Context, store *resource.Store, name string) (*Reader, error) {
	src, err := store.OpenReader(ctx, name)
	if err != nil {
		return nil, err
	}

	if !src.Scan() {
		scanErr := src.Err()
		src.Close()
		if scanErr != nil {
			return nil, fmt.Errorf("failed to read header of %s: %w", name, scanErr)
		}
		return nil, fmt.Errorf("csv file %s is empty", name)
	}

	headers := strings.Split(strings.TrimSpace(src.Text()), ",")
	index := make(map[string]int, len(headers))
	for i, header := range headers {
		index[header] = i
	}

	return &Reader{
		name:    name,
		src:     src,
		headers: headers,
		index:   index,
	}, nil
}

// Headers returns the column names in file order.
func (r *Reader) Headers() []string { return r.headers }

// Scan advances to the next record, returning false at end of input.
func (r *Reader) Scan() bool {
	if !r.src.Scan() {
		return false
	}
	r.fields = strings.Split(strings.TrimSpace(r.src.Text()), ",")
	return true
}

// Err returns the first error encountered while reading records.
func (r *Reader) Err() error { return r.src.Err() }

// Record returns the current record's fields in column order.
func (r *Reader) Record() []string { return r.fields }

// Column returns the current record's field under the named column.
func (r *Reader) Column(name string) (string, error) {
	offset, ok := r.index[name]
	if !ok {
		return "", fmt.Errorf("%w: %s in %s", ErrColumnNotFound, name, r.name)
	}
	if offset >= len(r.fields) {
		return "", fmt.Errorf("record in %s has no field for column %s", r.name, name)
	}
	return r.fields[offset], nil
}

// ColumnByNumber returns the current record's field by 1-based position.
func (r *Reader) ColumnByNumber(n int) (string, error) {
	if n < 1 || n > len(r.fields) {
		return "", fmt.Errorf("%w: column number %d in %s", ErrColumnNotFound, n, r.name)
	}
	return r.fields[n-1], nil
}

// ColumnPresent reports whether the named column appears in the header.
// It never has side effects.
func (r *Reader) ColumnPresent(name string) bool {
	_, ok := r.index[name]
	return ok
}

// BuildKey joins the named columns' values for the current record with
// separator ("" means DefaultKeySeparator).
func (r *Reader) BuildKey(columns []string, separator string) (string, error) {
	if separator == "" {
		separator = DefaultKeySeparator
	}

	parts := make([]string, 0, len(columns))
	for _, column := range columns {
		value, err := r.Column(column)
		if err != nil {
			return "", err
		}
		parts = append(parts, value)
	}
	return strings.Join(parts, separator), nil
}

// Close releases the underlying resource reader.
func (r *Reader) Close() error {
	return r.src.Close()
}
