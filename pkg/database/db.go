package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// ErrStorageUnavailable reports that the local storage area cannot be
// opened at all. This is fatal at startup: without it nothing else in
// the application can run.
var ErrStorageUnavailable = errors.New("storage unavailable")

type Config struct {
	Path string
}

func DefaultConfig() Config {
	if p := os.Getenv("BOOKHUB_DB_PATH"); p != "" {
		return Config{Path: p}
	}

	// local default: ~/.bookhub/library.db
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return Config{
		Path: filepath.Join(home, ".bookhub", "library.db"),
	}
}

func EnsureDataDir(cfg Config) error {
	return os.MkdirAll(filepath.Dir(cfg.Path), 0o755)
}

// Open opens (or creates, on first run) the library database. Every
// failure is wrapped in ErrStorageUnavailable so callers can treat the
// whole class uniformly.
func Open(cfg Config) (*sql.DB, error) {
	if err := EnsureDataDir(cfg); err != nil {
		return nil, fmt.Errorf("%w: ensure data dir: %v", ErrStorageUnavailable, err)
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %v", ErrStorageUnavailable, err)
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: pragma foreign_keys: %v", ErrStorageUnavailable, err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: pragma journal_mode: %v", ErrStorageUnavailable, err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping sqlite: %v", ErrStorageUnavailable, err)
	}

	return db, nil
}

func MustOpen(cfg Config) *sql.DB {
	db, err := Open(cfg)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	return db
}
