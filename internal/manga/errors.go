package manga

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned by writes whose target row does not exist.
	// Reads report a missing row as a nil result instead.
	ErrNotFound = errors.New("manga not found")

	// ErrIntegrity means the engine broke its own contract, e.g. an insert
	// that produced no row id. It is never worth retrying.
	ErrIntegrity = errors.New("store integrity violation")
)

// StoreError wraps every failure reported by the backing store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("manga store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// IsConstraint reports whether err is a SQLite constraint violation, such
// as inserting a (key, source) pair that already exists.
func IsConstraint(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.Code == sqlite3.ErrConstraint
}
