package store

import (
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned by write paths that require an existing row.
	// Read paths return nil or empty results instead.
	ErrNotFound = errors.New("not found")

	// ErrConstraintViolation wraps a rejected insert or update, such as a
	// second tag with an existing name or a link to a missing note.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrTransactionAborted wraps any failure inside Update. The store is
	// left exactly as it was before the call.
	ErrTransactionAborted = errors.New("transaction aborted")

	// ErrIO wraps failures of the underlying storage.
	ErrIO = errors.New("storage unavailable")
)

// classify maps SQLite result codes onto the store's error kinds.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_CONSTRAINT:
		return fmt.Errorf("%w: %w", ErrConstraintViolation, err)
	case sqlite3.SQLITE_IOERR, sqlite3.SQLITE_FULL, sqlite3.SQLITE_CANTOPEN,
		sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_READONLY,
		sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB:
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return err
}
