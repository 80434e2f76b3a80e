// Package cfgfile parses the chargeback tooling's line-oriented
// configuration format.
//
// The format looks a lot like YAML but is not YAML: a top-level line is
// anything that does not start with whitespace and contains a ':'. Text
// after the first ':' is the scalar value when non-empty; otherwise the
// following lines, up to the next top-level line, form an ordered list.
// List lines are kept verbatim after trimming surrounding whitespace, so
// an entry written as "- foo" is returned as "- foo", leading marker and
// all. Blank lines and lines starting with '#' are ignored.
package cfgfile

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// DefaultFile is used when no filename is supplied.
const DefaultFile = "PlatformChargeback.cfg"

var (
	ErrFileMissing = errors.New("config file not found")
	ErrKeyNotFound = errors.New("config key not found")
)

// Value is either a scalar string or an ordered list of strings,
// depending on how the key was written in the file.
type Value struct {
	scalar string
	list   []string
	isList bool
}

// IsList reports whether the value was written in block form.
func (v Value) IsList() bool { return v.isList }

// Scalar returns the inline value. Empty for list values.
func (v Value) Scalar() string { return v.scalar }

// List returns the block-form lines in file order. Nil for scalar values.
func (v Value) List() []string { return v.list }

// IsZero reports whether the value carries no data, which is what the
// suppressed lookup returns for a missing key.
func (v Value) IsZero() bool { return !v.isList && v.scalar == "" && v.list == nil }

// ParseFile reads the whole file into a key -> Value map.
// A missing file is an error wrapping ErrFileMissing so that a scheduled
// job fails visibly instead of reporting no data.
func ParseFile(filename string) (map[string]Value, error) {
	if filename == "" {
		filename = DefaultFile
	}

	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileMissing, filename)
		}
		return nil, fmt.Errorf("failed to open config file %s: %w", filename, err)
	}
	defer file.Close()

	values := make(map[string]Value)

	var (
		key     string
		pending Value
		open    bool
	)

	flush := func() {
		if !open {
			return
		}
		// A block key with no members is dropped, matching the
		// historical parser.
		if pending.isList && len(pending.list) == 0 {
			open = false
			return
		}
		values[key] = pending
		open = false
	}

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.Contains(line, ":") && !startsWithSpace(line) {
			flush()
			k, v, _ := strings.Cut(strings.TrimSpace(line), ":")
			key = k
			open = true
			if v = strings.TrimSpace(v); v != "" {
				pending = Value{scalar: v}
			} else {
				pending = Value{isList: true}
			}
			continue
		}

		// Continuation line: only valid while collecting a block value.
		if !open || !pending.isList {
			return nil, fmt.Errorf("unexpected continuation line %q in %s", line, filename)
		}
		pending.list = append(pending.list, strings.TrimSpace(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", filename, err)
	}
	flush()

	return values, nil
}

// Get scans filename for key and returns its value. A missing key is an
// error wrapping ErrKeyNotFound.
func Get(key, filename string) (Value, error) {
	values, err := ParseFile(filename)
	if err != nil {
		return Value{}, err
	}

	value, ok := values[key]
	if !ok {
		return Value{}, fmt.Errorf("%w: %s in %s", ErrKeyNotFound, key, filename)
	}
	return value, nil
}

// GetSuppressed is Get for genuinely optional keys: a missing key yields
// the zero Value and no error. File errors still propagate.
func GetSuppressed(key, filename string) (Value, error) {
	value, err := Get(key, filename)
	if errors.Is(err, ErrKeyNotFound) {
		return Value{}, nil
	}
	return value, err
}

// GetScalar returns the inline value for key, erroring if the key was
// written in block form.
func GetScalar(key, filename string) (string, error) {
	value, err := Get(key, filename)
	if err != nil {
		return "", err
	}
	if value.IsList() {
		return "", fmt.Errorf("key %s in %s is a list, expected a scalar", key, filename)
	}
	return value.Scalar(), nil
}

// GetList returns the block-form lines for key, erroring if the key was
// written inline.
func GetList(key, filename string) ([]string, error) {
	value, err := Get(key, filename)
	if err != nil {
		return nil, err
	}
	if !value.IsList() {
		return nil, fmt.Errorf("key %s in %s is a scalar, expected a list", key, filename)
	}
	return value.List(), nil
}

func startsWithSpace(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}
