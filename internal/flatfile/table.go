package flatfile

import (
	"errors"
	"fmt"
	"os"

	"github.com/gofrs/flock"

	"github.com/mesh-intelligence/storybench/pkg/types"
)

// lockSuffix names the advisory lock file kept next to each table file.
const lockSuffix = ".lock"

// table implements types.Table over one CSV file.
type table struct {
	name    string
	columns []string
	path    string
	backend *Backend
}

func (t *table) Name() string { return t.name }

func (t *table) Columns() []string { return append([]string(nil), t.columns...) }

// Rows reads the file and fills in any header column the file lacks.
func (t *table) Rows() ([]types.Row, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	if !t.backend.attached {
		return nil, types.ErrBackendDetached
	}
	_, rows, err := t.read()
	return rows, err
}

// Update holds the backend write lock and an exclusive lock on the
// table's lock file across read, fn, and the atomic rewrite, so updates
// from other processes sharing the data directory are serialized too. If
// fn returns an error nothing is written.
func (t *table) Update(fn func(rows []types.Row) ([]types.Row, error)) error {
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()

	if !t.backend.attached {
		return types.ErrBackendDetached
	}

	fl := flock.New(t.path + lockSuffix)
	if err := fl.Lock(); err != nil {
		t.backend.log.Error("table lock failed", "table", t.name, "path", fl.Path(), "error", err)
		return &types.StorageError{Op: "lock", Table: t.name, Err: fmt.Errorf("lock %s: %w", fl.Path(), err)}
	}
	defer fl.Unlock()

	existing, rows, err := t.read()
	if err != nil {
		return err
	}
	next, err := fn(rows)
	if err != nil {
		return err
	}
	if err := writeCSV(t.path, mergeHeader(t.columns, existing), next); err != nil {
		t.backend.log.Error("table write failed", "table", t.name, "path", t.path, "error", err)
		return &types.StorageError{Op: "write", Table: t.name, Err: err}
	}
	return nil
}

func (t *table) read() ([]string, []types.Row, error) {
	header, rows, err := readCSV(t.path)
	if err != nil {
		t.backend.log.Error("table read failed", "table", t.name, "path", t.path, "error", err)
		return nil, nil, &types.StorageError{Op: "read", Table: t.name, Err: err}
	}
	for _, row := range rows {
		for _, col := range t.columns {
			if _, ok := row[col]; !ok {
				row[col] = ""
			}
		}
	}
	return header, rows, nil
}

// initFile writes a header-only file when none exists.
func (t *table) initFile() error {
	if _, err := os.Stat(t.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return writeCSV(t.path, t.columns, nil)
}
