// Package repository defines error types that are reused across multiple
// repositories. These sentinel values let handlers distinguish failure
// scenarios without inspecting driver errors: ErrNotFound covers an
// absent catalog item, reservation or receipt; ErrDuplicate signals a
// uniqueness-constraint violation that the payment flow treats as
// retryable; ErrConflict is surfaced when retries are exhausted or a
// state transition is not allowed.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a referenced row does not exist.
// Handlers translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness
// constraint (MySQL error 1062).  The payment flow regenerates its
// identifiers and retries a bounded number of times before giving up.
var ErrDuplicate = errors.New("duplicate key")

// ErrConflict is returned when an operation cannot proceed due to
// conflicting state, such as an identifier collision that survived all
// retries.  Handlers translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// IsDuplicateKey reports whether err is a MySQL duplicate-entry error.
func IsDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return errors.Is(err, ErrDuplicate)
}
