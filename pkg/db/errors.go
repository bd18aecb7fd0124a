package db

import "strings"

// IsUniqueViolation reports whether the provided error references a unique
// constraint violation. A non-empty constraintName matches the named
// constraint directly; the generic driver markers are always checked because
// sqlite does not include index names in its error text.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" && strings.Contains(msg, constraintName) {
		return true
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
