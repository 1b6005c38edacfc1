package types

import "errors"

// Backend owns the storage for all standard tables. Callers attach it to a
// data directory, access tables by name, and detach when done.
type Backend interface {
	// Table returns the Table for the given name.
	// Returns ErrTableNotFound if the name is not a standard table.
	Table(name string) (Table, error)

	// Attach connects the backend to the storage described by config.
	// Creates DataDir if it does not exist. Returns ErrAlreadyAttached if
	// called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, table operations return ErrBackendDetached.
	Detach() error
}

// Backend lifecycle errors.
var (
	ErrBackendDetached = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
	ErrTableNotFound   = errors.New("table not found")
)
