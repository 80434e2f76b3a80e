// Package resource reads and writes named data resources without the caller
// caring whether the backing store is the local filesystem or a remote
// object store.
//
// A Store resolves credentials exactly once at construction; the resulting
// mode (local-only or remote-backed) is fixed for the Store's lifetime.
// Reads prefer a local cached copy and fall back to downloading from the
// remote store; writes land locally (after backing up any previous copy)
// and are uploaded when the write scope closes. Access is single-process,
// single-writer per resource name; there is no locking or retry layer.
package resource

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/platform-cfm/cfmstore/pkg/creds"
)

// ObjectStore is the remote side of a Store. Implementations live in
// driver subpackages and register themselves with RegisterDriver.
type ObjectStore interface {
	// Bucket returns the bucket or container the driver is bound to.
	Bucket() string

	// Head checks that key exists, returning an error wrapping
	// ErrNotFound when it does not.
	Head(ctx context.Context, key string) error

	// Download fetches key into localPath.
	Download(ctx context.Context, key, localPath string) error

	// Upload stores localPath under key. A non-empty encryptionKeyID
	// requests server-side encryption with that key.
	Upload(ctx context.Context, localPath, key, encryptionKeyID string) error

	// List returns every key with the given prefix, paging through the
	// store's listing API transparently. An empty prefix lists all keys.
	List(ctx context.Context, prefix string) ([]string, error)

	// CountPage returns the number of matches on the first listing page
	// only. It is a shallow count, not a total.
	CountPage(ctx context.Context, prefix string) (int, error)

	// Delete removes key from the store.
	Delete(ctx context.Context, key string) error

	// Close releases driver resources.
	Close() error
}

// DriverConstructor builds a connected ObjectStore from credentials.
type DriverConstructor func(ctx context.Context, c creds.Credentials) (ObjectStore, error)

var driverRegistry = make(map[string]DriverConstructor)

// RegisterDriver registers an ObjectStore constructor under a driver name.
func RegisterDriver(name string, constructor DriverConstructor) {
	driverRegistry[name] = constructor
}

// DefaultDriver is used when Options.Driver is empty.
const DefaultDriver = "s3"

// Options configures Store construction.
type Options struct {
	// Creds controls credential resolution; see creds.Options.
	Creds creds.Options

	// Driver names the registered ObjectStore driver used in
	// remote-backed mode. Defaults to DefaultDriver.
	Driver string

	Logger zerolog.Logger
}

// Store is a storage-transparent handle factory. Its mode is decided once,
// at construction, and never changes.
type Store struct {
	mode   creds.Mode
	remote ObjectStore
	encKey string
	log    zerolog.Logger
}

// New resolves credentials and, in remote-backed mode, connects the named
// driver. No remote calls happen in local-only mode.
func New(ctx context.Context, opts Options) (*Store, error) {
	opts.Creds.Logger = opts.Logger

	source, err := creds.Resolve(opts.Creds)
	if err != nil {
		return nil, err
	}

	if source.Mode() == creds.LocalOnly {
		return NewLocal(opts.Logger), nil
	}

	driverName := opts.Driver
	if driverName == "" {
		driverName = DefaultDriver
	}
	constructor, ok := driverRegistry[driverName]
	if !ok {
		return nil, fmt.Errorf("unknown object store driver: %s", driverName)
	}

	credentials, _ := source.Credentials()
	remote, err := constructor(ctx, credentials)
	if err != nil {
		return nil, err
	}

	return &Store{
		mode:   creds.RemoteBacked,
		remote: remote,
		encKey: credentials.EncryptionKeyID,
		log:    opts.Logger,
	}, nil
}

// NewLocal returns a Store fixed in local-only mode.
func NewLocal(logger zerolog.Logger) *Store {
	return &Store{mode: creds.LocalOnly, log: logger}
}

// NewRemote wraps an already-connected ObjectStore in a remote-backed
// Store. encryptionKeyID may be empty.
func NewRemote(remote ObjectStore, encryptionKeyID string, logger zerolog.Logger) *Store {
	return &Store{
		mode:   creds.RemoteBacked,
		remote: remote,
		encKey: encryptionKeyID,
		log:    logger,
	}
}

// Mode returns the store mode fixed at construction.
func (s *Store) Mode() creds.Mode { return s.mode }

// Close releases the remote driver, if any.
func (s *Store) Close() error {
	if s.remote == nil {
		return nil
	}
	return s.remote.Close()
}
