// Package store provides the key/value persistence behind projects. Keys
// are project names (plus the reserved theme key); values are the encoded
// project records.
package store

import (
	"context"
	"fmt"

	"github.com/conneroisu/mobilcoder/internal/config"
)

// Entry is one stored key/value pair.
type Entry struct {
	Key   string
	Value string
}

// ProjectStore is a string key/value store. Implementations must be safe
// for concurrent use.
type ProjectStore interface {
	// Get returns the value under key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set creates or replaces the value under key.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns every entry ordered by key.
	List(ctx context.Context) ([]Entry, error)
	Close() error
}

// Mover is implemented by stores that can move a value to a new key
// atomically.
type Mover interface {
	Move(ctx context.Context, from, to, value string) error
}

// Move stores value under to and removes from, atomically when the store
// supports it.
func Move(ctx context.Context, s ProjectStore, from, to, value string) error {
	if m, ok := s.(Mover); ok {
		return m.Move(ctx, from, to, value)
	}
	if err := s.Set(ctx, to, value); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	return s.Delete(ctx, from)
}

// Open creates the store selected by configuration.
func Open(cfg config.StorageConfig) (ProjectStore, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemory(), nil
	case config.DriverSQLite, "":
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
