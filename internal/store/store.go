// Package store holds every persisted record as JSON at hierarchical paths
// such as apiKeys/{key}, usage/{key}, requests/{id} and settings.
//
// There are no transactions. Callers that read, modify and write a document
// accept that concurrent writers overwrite each other (last write wins).
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Well-known top-level paths
const (
	PathAPIKeys   = "apiKeys"
	PathUsage     = "usage"
	PathRequests  = "requests"
	PathDownloads = "downloads"
	PathSettings  = "settings"
)

// Store errors
var (
	ErrInvalidPath = errors.New("invalid store path")
	ErrUnavailable = errors.New("store unavailable")
)

// Store is a hierarchical JSON document store
type Store interface {
	// Get decodes the document at path into dst. found is false when nothing
	// is stored there.
	Get(ctx context.Context, path string, dst any) (found bool, err error)
	// Put replaces the document at path.
	Put(ctx context.Context, path string, value any) error
	// Patch shallow-merges fields into the object at path, creating it if absent.
	Patch(ctx context.Context, path string, fields map[string]any) error
	// Delete removes path and everything below it.
	Delete(ctx context.Context, path string) error
	// List returns the direct children of path keyed by their last segment.
	List(ctx context.Context, path string) (map[string]json.RawMessage, error)
}

// HealthChecker is implemented by stores that can report whether their
// backing service is reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

type checkedStore struct {
	Store
	check func(ctx context.Context) error
}

func (c checkedStore) Health(ctx context.Context) error {
	return c.check(ctx)
}

// WithHealth attaches a reachability check to st
func WithHealth(st Store, check func(ctx context.Context) error) Store {
	return checkedStore{Store: st, check: check}
}

// Join builds a store path from segments
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// splitPath validates a path and returns its segments. Segments may not be
// empty or contain characters that Firebase rejects in keys.
func splitPath(path string) ([]string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	segments := strings.Split(path, "/")
	for _, s := range segments {
		if err := validateSegment(s); err != nil {
			return nil, err
		}
	}
	return segments, nil
}

func validateSegment(s string) error {
	if s == "" || s == "." || s == ".." {
		return fmt.Errorf("%w: bad segment %q", ErrInvalidPath, s)
	}
	for _, r := range s {
		switch {
		case r < 0x20 || r == 0x7f:
			return fmt.Errorf("%w: control character in %q", ErrInvalidPath, s)
		case strings.ContainsRune(".$#[]/?&=%\\", r):
			return fmt.Errorf("%w: character %q in %q", ErrInvalidPath, r, s)
		}
	}
	return nil
}

// normalize converts an arbitrary value into its generic JSON form
// (map[string]any, []any, float64, string, bool or nil).
func normalize(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}
	return out, nil
}

// isNull reports whether an encoded document is absent
func isNull(data []byte) bool {
	s := strings.TrimSpace(string(data))
	return s == "" || s == "null"
}
