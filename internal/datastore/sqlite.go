package datastore

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"

	"github.com/artifact-explorer/artifact-explorer/internal/logger"
)

// sqliteParams enables declared foreign keys and waits on a locked database
// instead of failing immediately.
const sqliteParams = "?_foreign_keys=on&_busy_timeout=5000"

// OpenSQLite opens (creating if needed) the SQLite database at path.
func OpenSQLite(path string) (*Store, error) {
	if path == "" {
		return nil, validationError(ErrNotInitialized, "sqlite path is empty")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, dbError(fmt.Errorf("failed to create database directory: %w", err), "open", "path", path)
		}
	}

	store, err := Open(sqlite.Open(path + sqliteParams))
	if err != nil {
		getLogger().Error("failed to open SQLite database", logger.String("path", path), logger.Error(err))
		return nil, err
	}

	getLogger().Info("SQLite database opened", logger.String("path", path))
	return store, nil
}
