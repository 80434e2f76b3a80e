package csvio

import (
	"context"
	"strings"

	"github.com/platform-cfm/cfmstore/pkg/resource"
)

// Writer accumulates an optional header plus pre-built CSV lines in memory
// and serializes them through the resource layer only when the write scope
// closes. Nothing touches the filesystem or the remote store until Close.
type Writer struct {
	store   *resource.Store
	name    string
	header  string
	current strings.Builder
	started bool
	lines   []string
	closed  bool
}

// NewWriter prepares a batched CSV writer for the named resource. header
// may be empty, in which case no header line is emitted.
func NewWriter(store *resource.Store, name, header string) *Writer {
	return &Writer{store: store, name: name, header: header}
}

// AddValue appends a single value to the current line, prepending a comma
// when the line already has content.
func (w *Writer) AddValue(value string) {
	if w.started {
		w.current.WriteByte(',')
	}
	w.current.WriteString(value)
	w.started = true
}

// AddValues appends each value in order to the current line.
func (w *Writer) AddValues(values []string) {
	for _, value := range values {
		w.AddValue(value)
	}
}

// NewLine finishes the current line and starts a fresh one.
func (w *Writer) NewLine() {
	w.lines = append(w.lines, w.current.String())
	w.current.Reset()
	w.started = false
}

// Close writes the header and all accumulated lines through the resource
// write protocol: any pre-existing local copy is backed up first, and in
// remote-backed mode the finished file is uploaded. Subsequent calls are
// no-ops. An unfinished current line is not written; call NewLine first.
func (w *Writer) Close(ctx context.Context) error {
	if w.closed {
		return nil
	}
	w.closed = true

	out, err := w.store.OpenWriter(ctx, w.name)
	if err != nil {
		return err
	}

	if w.header != "" {
		if err := out.WriteLine(w.header); err != nil {
			out.Close(ctx)
			return err
		}
	}
	for _, line := range w.lines {
		if err := out.WriteLine(line); err != nil {
			out.Close(ctx)
			return err
		}
	}

	return out.Close(ctx)
}
