package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	defaultBusyTimeout = 5 * time.Second
	memoryDatabase     = ":memory:"
)

// sqliteDSN builds a go-sqlite3 DSN. An empty database name opens a private
// in-memory database.
func sqliteDSN(p ConnParams) (string, error) {
	path := strings.TrimSpace(p.Database)
	if path == "" || path == memoryDatabase {
		return memoryDatabase, nil
	}
	if err := ensureSQLiteDir(path); err != nil {
		return "", fmt.Errorf("failed to prepare database path: %w", err)
	}

	// - foreign_keys=on: enforce FK constraints consistently.
	// - busy_timeout: wait briefly on locks instead of failing with SQLITE_BUSY.
	return fmt.Sprintf(
		"file:%s?_foreign_keys=on&_mode=rwc&_busy_timeout=%d",
		path,
		int(defaultBusyTimeout/time.Millisecond),
	), nil
}

func ensureSQLiteDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
