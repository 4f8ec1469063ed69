package store

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrNotInitialized = errors.New("catalog store not initialized")
	ErrNotFound       = errors.New("not found")
)

// IsConstraintViolation reports whether err is a SQLite constraint failure,
// such as a duplicate category name or a dangling productId.
func IsConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}
