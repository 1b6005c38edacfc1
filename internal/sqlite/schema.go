package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
)

// seqColumn orders rows the way they were stored.
const seqColumn = "row_seq"

// createTableDDL builds the CREATE TABLE statement for a table: an
// autoincrement sequence followed by one TEXT column per header column.
func createTableDDL(t *table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n    %s INTEGER PRIMARY KEY AUTOINCREMENT", quoteIdent(t.name), seqColumn)
	for _, col := range t.columns {
		fmt.Fprintf(&b, ",\n    %s TEXT NOT NULL DEFAULT ''", quoteIdent(col))
	}
	b.WriteString("\n);")
	return b.String()
}

// createSchema creates every table that does not exist yet.
func createSchema(db *sql.DB, tables map[string]*table) error {
	for _, t := range tables {
		if _, err := db.Exec(createTableDDL(t)); err != nil {
			return fmt.Errorf("creating %s: %w", t.name, err)
		}
	}
	return nil
}

// quoteIdent quotes an SQL identifier ("user" is a keyword).
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func columnList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
	}
	return strings.Join(quoted, ", ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
