package types

import "errors"

// Row is one record of a table keyed by column name. Absent columns read
// as the empty string.
type Row map[string]string

// Clone returns a copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is one tabular data set with a fixed header row. Rows always come
// back in storage order with every header column present.
type Table interface {
	// Name returns the table name (e.g. "story_generator").
	Name() string

	// Columns returns the header row.
	Columns() []string

	// Rows reads every row. A table whose backing storage does not exist
	// yet has no rows.
	Rows() ([]Row, error)

	// Update runs a read-modify-write cycle. fn receives the current rows
	// and returns the rows to store; the whole table is rewritten. No other
	// Update on the same backend runs between the read and the write.
	Update(fn func(rows []Row) ([]Row, error)) error
}

// Table operation errors.
var (
	ErrInvalidID        = errors.New("invalid id")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrAlreadyAnnotated = errors.New("submission already annotated by user")
)
