// Package repository holds the MySQL data access layer. Each repository owns
// one table family and resolves its foreign keys into plain optional values
// with joins, so callers never unwrap nested rows.
//
// The sentinel errors below let higher layers tell failure kinds apart
// without parsing driver messages.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by id matches no row. Handlers
// translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update hits a unique key.
// Handlers translate it into an HTTP 409 response.
var ErrDuplicate = errors.New("duplicate entry")

// ErrConflict is returned when a row exists but is in a state that does not
// allow the operation, such as moving a device that is not in a warehouse.
var ErrConflict = errors.New("conflict")

const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a MySQL unique key violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// mapWriteErr turns unique key violations into ErrDuplicate and passes
// every other error through untouched.
func mapWriteErr(err error) error {
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}
