package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStorage matches every *StorageError via errors.Is.
var ErrStorage = errors.New("storage failure")

// Authentication errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// ValidationError reports every failed field or section check of a
// submission. Messages are meant to be shown to the user as-is.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// Add appends a message.
func (e *ValidationError) Add(msg string) {
	e.Messages = append(e.Messages, msg)
}

// Err returns e when it holds at least one message and nil otherwise.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Messages) == 0 {
		return nil
	}
	return e
}

// StorageError wraps an I/O or parse failure on a table.
type StorageError struct {
	Op    string // "read" or "write"
	Table string
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrStorage) match any StorageError.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
