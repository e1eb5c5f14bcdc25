package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrCategoryNotFound      = errors.New("category not found")
	ErrPrayerNotFound        = errors.New("prayer not found")
	ErrUserCategoryNotFound  = errors.New("user category not found")
	ErrDuplicateUserCategory = errors.New("user category already exists")
)

// DuplicateUserCategoryError names the title that collided with an existing user category.
type DuplicateUserCategoryError struct {
	Title string
}

func (e *DuplicateUserCategoryError) Error() string {
	return fmt.Sprintf("user category %q already exists", e.Title)
}

func (e *DuplicateUserCategoryError) Unwrap() error {
	return ErrDuplicateUserCategory
}

// IsLockedError reports whether err is SQLite refusing a lock held by another
// connection. Such failures are transient and are not surfaced to the user.
func IsLockedError(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked {
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "database is locked")
}

// IsUniqueViolation reports whether err is a UNIQUE constraint failure.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
