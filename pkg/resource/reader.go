package resource

import (
	"bufio"
	"context"
	"os"
)

// ReadOption adjusts how a Reader is opened.
type ReadOption func(*readConfig)

type readConfig struct {
	forceRemote      bool
	suppressNotFound bool
}

// ForceRemote bypasses the local cache check and always downloads from the
// remote store, even when a local copy exists.
func ForceRemote() ReadOption {
	return func(c *readConfig) { c.forceRemote = true }
}

// SuppressNotFound makes a missing resource yield a nil Reader and nil
// error instead of an error, for genuinely optional inputs.
func SuppressNotFound() ReadOption {
	return func(c *readConfig) { c.suppressNotFound = true }
}

// maxLineBytes caps a single resource line. Report rows run well under
// this; the default scanner limit of 64KB is too tight for some of them.
const maxLineBytes = 10 * 1024 * 1024

// Reader is a single-pass line sequence over a resource. Once a line has
// been consumed it cannot be revisited; re-iterating requires re-opening
// the resource.
type Reader struct {
	name    string
	file    *os.File
	scanner *bufio.Scanner
}

// OpenReader opens the named resource for reading.
//
// In local-only mode, or when a cached local copy exists and ForceRemote
// was not given, the local file is opened directly. Otherwise the remote
// store is probed: not-found returns an ErrNotFound-wrapped error, or a
// nil Reader with nil error under SuppressNotFound, so callers using that
// option must check for a nil Reader. On a hit the object is downloaded to
// the local path of the same name before opening.
func (s *Store) OpenReader(ctx context.Context, name string, opts ...ReadOption) (*Reader, error) {
	var cfg readConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if s.remote != nil && (cfg.forceRemote || !localFileExists(name)) {
		s.log.Info().
			Str("resource", name).
			Str("bucket", s.remote.Bucket()).
			Msg("reading resource from remote store")

		if err := s.remote.Head(ctx, name); err != nil {
			if IsNotFound(err) && cfg.suppressNotFound {
				s.log.Info().Str("resource", name).Msg("resource not found, suppressed")
				return nil, nil
			}
			return nil, WrapError(s.remote.Bucket(), "head", err)
		}

		if err := s.remote.Download(ctx, name, name); err != nil {
			return nil, WrapError(s.remote.Bucket(), "download", err)
		}
	} else if s.remote == nil {
		s.log.Debug().Str("resource", name).Msg("no remote store, reading resource locally")
	}

	file, err := os.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			if cfg.suppressNotFound {
				s.log.Info().Str("resource", name).Msg("resource not found, suppressed")
				return nil, nil
			}
			return nil, WrapError("local", "open", ErrNotFound)
		}
		return nil, WrapError("local", "open", err)
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineBytes)

	return &Reader{
		name:    name,
		file:    file,
		scanner: scanner,
	}, nil
}

// Name returns the resource name the Reader was opened with.
func (r *Reader) Name() string { return r.name }

// Scan advances to the next line, returning false at end of input or on
// error. The cursor only moves forward.
func (r *Reader) Scan() bool { return r.scanner.Scan() }

// Text returns the current line without its trailing newline.
func (r *Reader) Text() string { return r.scanner.Text() }

// Err returns the first error encountered while scanning.
func (r *Reader) Err() error { return r.scanner.Err() }

// ReadAll consumes the remaining lines. The Reader is exhausted afterwards.
func (r *Reader) ReadAll() ([]string, error) {
	var lines []string
	for r.Scan() {
		lines = append(lines, r.Text())
	}
	return lines, r.Err()
}

// Close releases the local file descriptor. Reads have no remote side
// effects on close.
func (r *Reader) Close() error {
	return r.file.Close()
}

func localFileExists(name string) bool {
	info, err := os.Stat(name)
	return err == nil && info.Mode().IsRegular()
}
