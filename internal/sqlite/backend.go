// Package sqlite implements the SQLite storage backend for storybench.
// Each standard table is a SQLite table of TEXT columns in one database
// file; every Update runs inside a transaction.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/storybench/internal/logger"
	"github.com/mesh-intelligence/storybench/pkg/types"
)

// DBFileName is the database file created in DataDir.
const DBFileName = "storybench.db"

// dsnOptions make every transaction take the database write lock when it
// begins and make other processes wait up to five seconds for it.
const dsnOptions = "?_pragma=busy_timeout(5000)&_txlock=immediate"

// Compile-time interface check.
var _ types.Backend = (*Backend)(nil)

// Backend implements types.Backend using SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	tables   map[string]*table
	log      *logger.Logger
}

// NewBackend creates a new SQLite backend instance.
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

// Attach opens (or creates) DataDir/storybench.db, creates missing tables,
// and imports any CSV file left in DataDir by the flat-file backend into
// tables that are still empty.
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

	db, err := sql.Open("sqlite", filepath.Join(dataDir, DBFileName)+dsnOptions)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps writers strictly ordered.
	db.SetMaxOpenConns(1)

	tables := make(map[string]*table, len(types.StandardTableNames))
	for _, name := range types.StandardTableNames {
		cols, err := types.TableColumns(name)
		if err != nil {
			db.Close()
			return err
		}
		tables[name] = &table{name: name, columns: cols, backend: b}
	}

	if err := createSchema(db, tables); err != nil {
		db.Close()
		return fmt.Errorf("create schema: %w", err)
	}
	if err := importCSV(db, dataDir, tables, b.log); err != nil {
		db.Close()
		return fmt.Errorf("import csv: %w", err)
	}

	b.db = db
	b.config = config
	b.tables = tables
	b.attached = true
	b.log.Debug("sqlite backend attached", "data_dir", dataDir)
	return nil
}

// Detach closes the database. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	b.tables = make(map[string]*table)
	return nil
}
