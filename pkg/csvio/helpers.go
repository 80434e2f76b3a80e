package csvio

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/platform-cfm/cfmstore/pkg/resource"
)

// ColumnType selects how Generate formats a column.
type ColumnType string

const (
	Float ColumnType = "float"
	Text  ColumnType = "text"
)

// Column describes one output column for Generate: the record field it
// draws from, the heading it is written under, and how it is formatted.
type Column struct {
	Name    string
	Heading string
	Type    ColumnType
}

// SumColumn reads every record of the named CSV resource and accumulates a
// running total. spec is either a single column name, or "colA*colB" to
// sum the per-record product of two columns.
func SumColumn(ctx context.Context, store *resource.Store, name, spec string) (float64, error) {
	reader, err := OpenReader(ctx, store, name)
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	columns := strings.Split(spec, "*")
	for _, column := range columns {
		if !reader.ColumnPresent(column) {
			return 0, fmt.Errorf("%w: %s in %s", ErrColumnNotFound, column, name)
		}
	}

	var total float64
	for reader.Scan() {
		product := 1.0
		for _, column := range columns {
			value, err := reader.Column(column)
			if err != nil {
				return 0, err
			}
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return 0, fmt.Errorf("non-numeric value %q in column %s of %s: %w", value, column, name, err)
			}
			product *= f
		}
		total += product
	}
	return total, reader.Err()
}

// BuildMap builds a map from composite key (joined keyColumns) to
// composite value (joined valueColumns) across every record of the named
// CSV resource. A duplicate key silently takes the value of its last
// occurrence.
func BuildMap(ctx context.Context, store *resource.Store, name string, keyColumns, valueColumns []string) (map[string]string, error) {
	reader, err := OpenReader(ctx, store, name)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	result := make(map[string]string)
	for reader.Scan() {
		key, err := reader.BuildKey(keyColumns, "")
		if err != nil {
			return nil, err
		}
		value, err := reader.BuildKey(valueColumns, "")
		if err != nil {
			return nil, err
		}
		result[key] = value
	}
	return result, reader.Err()
}

// Generate writes records to the named CSV resource: a header row of
// column headings, one row per record with float columns formatted to two
// decimal places, and, when withTotals is set, a trailing totals row that
// sums every float column. Non-float totals cells are empty except the
// first column, which carries the literal label "Total".
func Generate(ctx context.Context, store *resource.Store, name string, records []map[string]string, columns []Column, withTotals bool) error {
	writer, err := store.OpenWriter(ctx, name)
	if err != nil {
		return err
	}

	if err := generate(writer, records, columns, withTotals); err != nil {
		writer.Close(ctx)
		return err
	}
	return writer.Close(ctx)
}

func generate(writer *resource.Writer, records []map[string]string, columns []Column, withTotals bool) error {
	headings := make([]string, len(columns))
	for i, column := range columns {
		headings[i] = column.Heading
	}
	if err := writer.WriteLine(strings.Join(headings, ",")); err != nil {
		return err
	}

	totals := make(map[string]float64)
	for _, record := range records {
		cells := make([]string, len(columns))
		for i, column := range columns {
			value := record[column.Name]
			if column.Type == Float {
				f, err := strconv.ParseFloat(value, 64)
				if err != nil {
					return fmt.Errorf("non-numeric value %q for float column %s: %w", value, column.Name, err)
				}
				totals[column.Name] += f
				cells[i] = strconv.FormatFloat(f, 'f', 2, 64)
			} else {
				cells[i] = value
			}
		}
		if err := writer.WriteLine(strings.Join(cells, ",")); err != nil {
			return err
		}
	}

	if !withTotals {
		return nil
	}

	cells := make([]string, len(columns))
	for i, column := range columns {
		switch {
		case column.Type == Float:
			cells[i] = strconv.FormatFloat(totals[column.Name], 'f', 2, 64)
		case i == 0:
			cells[i] = "Total"
		}
	}
	return writer.WriteLine(strings.Join(cells, ","))
}
