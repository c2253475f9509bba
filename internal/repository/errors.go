package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrSessionNotOpen is returned by writes that require an OPEN session when
// the session has already reached a terminal status.
var ErrSessionNotOpen = errors.New("session is not open")

// IsDuplicateKeyErr reports whether err is a unique-constraint violation.
// Drivers do not all translate to gorm.ErrDuplicatedKey, so the message is
// matched as well.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	// PostgreSQL 23505
	if strings.Contains(msg, "duplicate key value violates unique constraint") {
		return true
	}
	// SQLite 2067
	return strings.Contains(msg, "UNIQUE constraint failed")
}

// IsNotFound reports whether err is gorm's record-not-found.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
