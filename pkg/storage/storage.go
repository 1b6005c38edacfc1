// Package storage opens a table backend by name. The backend is attached
// and ready for the record and annotation stores.
//
// Example:
//
//	b, err := storage.Open(types.Config{
//	    Backend: types.BackendCSV,
//	    DataDir: ".storybench-data",
//	}, nil)
//	if err != nil {
//	    return err
//	}
//	defer b.Detach()
package storage

import (
	"fmt"

	"github.com/mesh-intelligence/storybench/internal/flatfile"
	"github.com/mesh-intelligence/storybench/internal/logger"
	"github.com/mesh-intelligence/storybench/internal/sqlite"
	"github.com/mesh-intelligence/storybench/pkg/types"
)

// New returns a detached backend of the given kind. An empty kind selects
// the CSV backend.
func New(kind string, log *logger.Logger) (types.Backend, error) {
	switch kind {
	case types.BackendCSV, "":
		return flatfile.NewBackend(log), nil
	case types.BackendSQLite:
		return sqlite.NewBackend(log), nil
	default:
		return nil, fmt.Errorf("backend %q: %w", kind, types.ErrBackendUnknown)
	}
}

// Open creates the backend named by cfg.Backend and attaches it.
func Open(cfg types.Config, log *logger.Logger) (types.Backend, error) {
	if cfg.Backend == "" {
		cfg.Backend = types.BackendCSV
	}
	b, err := New(cfg.Backend, log)
	if err != nil {
		return nil, err
	}
	if err := b.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach %s backend: %w", cfg.Backend, err)
	}
	return b, nil
}
