package resource

import (
	"bufio"
	"context"
	"io"
	"os"
)

// BackupSuffix is appended to a resource name when a pre-existing local
// copy is preserved before being overwritten.
const BackupSuffix = ".sav"

// Writer writes a resource locally and, in remote-backed mode, uploads it
// to the object store when closed.
type Writer struct {
	store  *Store
	name   string
	file   *os.File
	buf    *bufio.Writer
	closed bool
}

// OpenWriter opens the named resource for writing. A pre-existing local
// file under the same name is first copied to name+BackupSuffix, metadata
// included, before the target is truncated.
func (s *Store) OpenWriter(ctx context.Context, name string) (*Writer, error) {
	if localFileExists(name) {
		backup := name + BackupSuffix
		s.log.Info().
			Str("resource", name).
			Str("backup", backup).
			Msg("backing up existing resource")
		if err := copyFile(name, backup); err != nil {
			return nil, WrapError("local", "backup", err)
		}
	}

	if s.remote == nil {
		s.log.Debug().Str("resource", name).Msg("no remote store, resource will be written locally")
	}

	file, err := os.Create(name)
	if err != nil {
		return nil, WrapError("local", "create", err)
	}

	return &Writer{
		store: s,
		name:  name,
		file:  file,
		buf:   bufio.NewWriter(file),
	}, nil
}

// Name returns the resource name the Writer was opened with.
func (w *Writer) Name() string { return w.name }

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

// WriteString writes s verbatim.
func (w *Writer) WriteString(s string) (int, error) {
	return w.buf.WriteString(s)
}

// WriteLine writes s followed by a newline.
func (w *Writer) WriteLine(s string) error {
	if _, err := w.buf.WriteString(s); err != nil {
		return err
	}
	return w.buf.WriteByte('\n')
}

// Close flushes and closes the local file and then, in remote-backed mode,
// uploads it to the store under the same name, applying the configured
// server-side encryption key. The upload is attempted exactly once; a
// failure propagates without retry. Subsequent calls are no-ops.
func (w *Writer) Close(ctx context.Context) error {
	if w.closed {
		return nil
	}
	w.closed = true

	flushErr := w.buf.Flush()
	if err := w.file.Close(); err != nil {
		return WrapError("local", "close", err)
	}
	if flushErr != nil {
		return WrapError("local", "flush", flushErr)
	}

	if w.store.remote == nil {
		return nil
	}

	w.store.log.Info().
		Str("resource", w.name).
		Str("bucket", w.store.remote.Bucket()).
		Msg("writing resource to remote store")

	if err := w.store.remote.Upload(ctx, w.name, w.name, w.store.encKey); err != nil {
		return WrapError(w.store.remote.Bucket(), "upload", err)
	}
	return nil
}

// copyFile duplicates src to dst, carrying over permissions and
// modification times so the backup is a faithful stand-in.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	dest, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(dest, source); err != nil {
		dest.Close()
		os.Remove(dst) // Clean up partial file
		return err
	}
	if err := dest.Close(); err != nil {
		return err
	}

	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
