// Package repository defines error types that are reused across the MySQL
// repositories and the in-memory store.  These sentinel values allow higher
// layers such as the service package to translate storage failures into
// business errors.  For example, ErrDuplicate indicates that a user already
// holds a reservation for a showing, while ErrConflict signals that a
// delete cannot proceed because dependent records still exist (e.g.
// deleting a showing that has reservations).
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert would violate the one
// reservation per user and showing rule.
var ErrDuplicate = errors.New("duplicate")

// ErrConflict is returned when a delete cannot be performed because of
// dependent rows, such as attempting to delete a venue that still hosts
// events.
var ErrConflict = errors.New("conflict")

// MySQL server error numbers the repositories care about.
const (
	mysqlDupEntry        = 1062 // ER_DUP_ENTRY
	mysqlRowIsReferenced = 1451 // ER_ROW_IS_REFERENCED_2 (delete blocked by FK)
	mysqlNoReferencedRow = 1452 // ER_NO_REFERENCED_ROW_2 (insert with missing parent)
)

func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicateKey(err error) bool { return mysqlErrNumber(err) == mysqlDupEntry }

func isRowReferenced(err error) bool { return mysqlErrNumber(err) == mysqlRowIsReferenced }

func isMissingParent(err error) bool { return mysqlErrNumber(err) == mysqlNoReferencedRow }
