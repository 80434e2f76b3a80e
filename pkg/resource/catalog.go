package resource

import (
	"context"
	"os"
)

// List enumerates resource names. In remote-backed mode it pages through
// the store's listing API and returns every key with the given prefix. In
// local-only mode it lists the current working directory's entries; the
// prefix is ignored there, a known limitation of the local fallback.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	if s.remote != nil {
		keys, err := s.remote.List(ctx, prefix)
		if err != nil {
			return nil, WrapError(s.remote.Bucket(), "list", err)
		}
		return keys, nil
	}

	entries, err := os.ReadDir(".")
	if err != nil {
		return nil, WrapError("local", "list", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names, nil
}

// Count returns the number of matches on the first listing page only, a
// shallow count rather than a total. In local-only mode it returns 0.
func (s *Store) Count(ctx context.Context, prefix string) (int, error) {
	if s.remote == nil {
		return 0, nil
	}

	n, err := s.remote.CountPage(ctx, prefix)
	if err != nil {
		return 0, WrapError(s.remote.Bucket(), "count", err)
	}
	return n, nil
}

// Delete removes the named resource from the remote store. There is no
// local-only equivalent; ErrLocalOnly is returned in that mode.
func (s *Store) Delete(ctx context.Context, name string) error {
	if s.remote == nil {
		return WrapError("local", "delete", ErrLocalOnly)
	}

	if err := s.remote.Delete(ctx, name); err != nil {
		return WrapError(s.remote.Bucket(), "delete", err)
	}
	s.log.Info().
		Str("resource", name).
		Str("bucket", s.remote.Bucket()).
		Msg("deleted resource from remote store")
	return nil
}
