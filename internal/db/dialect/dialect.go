// Package dialect provides SQL fragment helpers for PostgreSQL/MySQL/SQLite portability.
package dialect

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	SQLite3 = "sqlite3"
	PGX     = "pgx"
	MySQL   = "mysql"
)

// Normalize maps a configured driver name to the registered database/sql driver.
func Normalize(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql", "pgx":
		return PGX, nil
	case "mysql":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite3, nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", driver)
	}
}

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	typeNamePattern   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\(\d+(,\d+)?\))?$`)
)

// maxIdentifierLength is PostgreSQL's NAMEDATALEN-1, the tightest of the three.
const maxIdentifierLength = 63

// IsIdentifier reports whether s can be interpolated as an unquoted table or
// column name.
func IsIdentifier(s string) bool {
	return len(s) <= maxIdentifierLength && identifierPattern.MatchString(s)
}

// IsTypeName reports whether s looks like a single-token column type such as
// integer, text or varchar(255).
func IsTypeName(s string) bool {
	return typeNamePattern.MatchString(s)
}
