package sqlite

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/mesh-intelligence/storybench/internal/flatfile"
	"github.com/mesh-intelligence/storybench/internal/logger"
)

// importCSV loads <table>.csv from dataDir into every table that is still
// empty, so a data directory written by the flat-file backend can be
// switched to SQLite. Loading is transactional: all tables import or none.
func importCSV(db *sql.DB, dataDir string, tables map[string]*table, log *logger.Logger) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning import transaction: %w", err)
	}
	defer tx.Rollback()

	for _, t := range tables {
		var count int
		if err := tx.QueryRow("SELECT COUNT(*) FROM " + quoteIdent(t.name)).Scan(&count); err != nil {
			return fmt.Errorf("counting %s: %w", t.name, err)
		}
		if count > 0 {
			continue
		}
		path := filepath.Join(dataDir, t.name+".csv")
		rows, err := flatfile.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if len(rows) == 0 {
			continue
		}
		if err := insertRows(tx, t, rows); err != nil {
			return fmt.Errorf("loading %s: %w", t.name, err)
		}
		log.Info("imported csv table", "table", t.name, "rows", len(rows))
	}
	return tx.Commit()
}
