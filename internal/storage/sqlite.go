package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"playout-engine/internal/config"

	_ "github.com/mattn/go-sqlite3"
)

const SQLiteDriver = "sqlite3"

// NewSQLiteProvider opens the sqlite database at the configured path.
// sqlite allows a single writer, so the pool is pinned to one connection. This
// also keeps ":memory:" databases alive for the lifetime of the provider.
func NewSQLiteProvider(cfg *config.Storage) (*SQLProvider, error) {
	if cfg.SQLite.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.SQLite.Path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000", cfg.SQLite.Path)
	provider, err := openSQLProvider(SQLiteDriver, dsn)
	if err != nil {
		return nil, err
	}
	provider.db.SetMaxOpenConns(1)
	return provider, nil
}
