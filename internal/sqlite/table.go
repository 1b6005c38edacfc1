package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/storybench/pkg/types"
)

// table implements types.Table over one SQLite table.
type table struct {
	name    string
	columns []string
	backend *Backend
}

func (t *table) Name() string { return t.name }

func (t *table) Columns() []string { return append([]string(nil), t.columns...) }

func (t *table) Rows() ([]types.Row, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	if !t.backend.attached {
		return nil, types.ErrBackendDetached
	}
	rows, err := selectRows(t.backend.db, t)
	if err != nil {
		t.backend.log.Error("table read failed", "table", t.name, "error", err)
		return nil, &types.StorageError{Op: "read", Table: t.name, Err: err}
	}
	return rows, nil
}

// Update replaces the table contents with the rows fn returns, inside one
// transaction. Columns outside the header are not stored.
func (t *table) Update(fn func(rows []types.Row) ([]types.Row, error)) error {
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()

	if !t.backend.attached {
		return types.ErrBackendDetached
	}

	tx, err := t.backend.db.Begin()
	if err != nil {
		return &types.StorageError{Op: "write", Table: t.name, Err: fmt.Errorf("beginning transaction: %w", err)}
	}
	defer tx.Rollback()

	rows, err := selectRows(tx, t)
	if err != nil {
		return &types.StorageError{Op: "read", Table: t.name, Err: err}
	}
	next, err := fn(rows)
	if err != nil {
		return err
	}
	if err := replaceRows(tx, t, next); err != nil {
		t.backend.log.Error("table write failed", "table", t.name, "error", err)
		return &types.StorageError{Op: "write", Table: t.name, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &types.StorageError{Op: "write", Table: t.name, Err: fmt.Errorf("committing: %w", err)}
	}
	return nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

func selectRows(q querier, t *table) ([]types.Row, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", columnList(t.columns), quoteIdent(t.name), seqColumn)
	rs, err := q.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", t.name, err)
	}
	defer rs.Close()

	var rows []types.Row
	values := make([]string, len(t.columns))
	dest := make([]any, len(t.columns))
	for i := range values {
		dest[i] = &values[i]
	}
	for rs.Next() {
		if err := rs.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", t.name, err)
		}
		row := make(types.Row, len(t.columns))
		for i, col := range t.columns {
			row[col] = values[i]
		}
		rows = append(rows, row)
	}
	return rows, rs.Err()
}

func replaceRows(q querier, t *table, rows []types.Row) error {
	if _, err := q.Exec("DELETE FROM " + quoteIdent(t.name)); err != nil {
		return fmt.Errorf("clearing %s: %w", t.name, err)
	}
	return insertRows(q, t, rows)
}

func insertRows(q querier, t *table, rows []types.Row) error {
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(t.name), columnList(t.columns), placeholders(len(t.columns)))
	args := make([]any, len(t.columns))
	for _, row := range rows {
		for i, col := range t.columns {
			args[i] = row[col]
		}
		if _, err := q.Exec(stmt, args...); err != nil {
			return fmt.Errorf("inserting into %s: %w", t.name, err)
		}
	}
	return nil
}
