// Package flatfile implements the default storybench backend: one CSV file
// with a fixed header row per table. Every write rewrites the whole file
// atomically, and all read-modify-write cycles of one backend are
// serialized by a single lock.
package flatfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mesh-intelligence/storybench/internal/logger"
	"github.com/mesh-intelligence/storybench/pkg/types"
)

// Compile-time interface check.
var _ types.Backend = (*Backend)(nil)

// Backend implements types.Backend over CSV files in DataDir.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	tables   map[string]*table
	log      *logger.Logger
}

// NewBackend creates a new CSV backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(log *logger.Logger) *Backend {
	return &Backend{
		tables: make(map[string]*table),
		log:    logger.OrNop(log),
	}
}

// Table returns the table with the given name.
// Returns ErrBackendDetached if the backend is not attached and
// ErrTableNotFound if the name is not recognized.
func (b *Backend) Table(name string) (types.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrBackendDetached
	}
	t, ok := b.tables[name]
	if !ok {
		return nil, types.ErrTableNotFound
	}
	return t, nil
}

// Attach initializes the backend with the given configuration. It creates
// DataDir if needed and writes a header-only file for every standard table
// that does not exist yet.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tables := make(map[string]*table, len(types.StandardTableNames))
	for _, name := range types.StandardTableNames {
		cols, err := types.TableColumns(name)
		if err != nil {
			return err
		}
		t := &table{
			name:    name,
			columns: cols,
			path:    filepath.Join(dataDir, name+".csv"),
			backend: b,
		}
		if err := t.initFile(); err != nil {
			return &types.StorageError{Op: "init", Table: name, Err: err}
		}
		tables[name] = t
	}

	b.config = config
	b.tables = tables
	b.attached = true
	b.log.Debug("flatfile backend attached", "data_dir", dataDir)
	return nil
}

// Detach releases the backend. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	b.tables = make(map[string]*table)
	return nil
}

// Path returns the file backing the named table.
func (b *Backend) Path(name string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return "", types.ErrBackendDetached
	}
	t, ok := b.tables[name]
	if !ok {
		return "", types.ErrTableNotFound
	}
	return t.path, nil
}
