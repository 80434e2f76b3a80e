package resource

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the resource exists neither locally nor remotely.
	ErrNotFound = errors.New("resource not found")
	// ErrRemote covers any remote store failure other than not-found.
	ErrRemote = errors.New("remote store error")
	// ErrLocalOnly is returned by operations that have no local-only form.
	ErrLocalOnly = errors.New("operation requires a remote store")
)

// IsNotFound reports whether err represents a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// WrapError adds context to an error
func WrapError(store, operation string, err error) error {
	return fmt.Errorf("%s (%s): %w", operation, store, err)
}
