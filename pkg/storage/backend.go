// Package storage provides the public factory for movienight storage
// backends while keeping implementation details internal.
package storage

import (
	"fmt"

	"github.com/mesh-intelligence/movienight/internal/bolt"
	"github.com/mesh-intelligence/movienight/internal/sqlite"
	"github.com/mesh-intelligence/movienight/pkg/types"
)

// NewBackend returns a detached backend for the named engine
// (types.BackendSQLite or types.BackendBolt).
//
// Example:
//
//	backend, err := storage.NewBackend(types.BackendSQLite)
//	err = backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: "~/.local/share/movienight",
//	})
//	defer backend.Detach()
func NewBackend(name string) (types.Backend, error) {
	switch name {
	case types.BackendSQLite:
		return sqlite.NewBackend(), nil
	case types.BackendBolt:
		return bolt.NewBackend(), nil
	case "":
		return nil, types.ErrBackendEmpty
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, name)
	}
}

// Open creates the backend named by config.Backend and attaches it.
func Open(config types.Config) (types.Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	backend, err := NewBackend(config.Backend)
	if err != nil {
		return nil, err
	}
	if err := backend.Attach(config); err != nil {
		return nil, fmt.Errorf("attaching %s backend: %w", config.Backend, err)
	}
	return backend, nil
}
