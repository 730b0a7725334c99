// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow the service layer to
// distinguish between storage failure scenarios without inspecting
// driver-specific errors.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by primary key finds no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique constraint.
// Used by the ticket repository to report that a seat is already taken.
var ErrDuplicate = errors.New("duplicate key")

// ErrEmailExists is returned when registering an email that is already
// in use.
var ErrEmailExists = errors.New("email already exists")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// IsDuplicateKey reports whether err is a unique constraint violation.
// MySQL reports error 1062; SQLite (used by tests) reports
// "UNIQUE constraint failed".
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") || strings.Contains(msg, "duplicate entry")
}
