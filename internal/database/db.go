// Package database opens the storage engines behind the ledger and the cash
// accounts.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/pebble"
	_ "github.com/mattn/go-sqlite3" // cgo driver, registered as "sqlite3"
	_ "modernc.org/sqlite"          // pure Go driver, registered as "sqlite"
)

const (
	DriverCGO    = "sqlite3"
	DriverPureGo = "sqlite"
)

// Config holds SQL database configuration
type Config struct {
	Driver string // DriverCGO or DriverPureGo
	Path   string // file path, or a "file:" URI for in-memory databases
}

// Open opens a SQLite database tuned for an append-only ledger: WAL
// journaling, full fsync, and a busy timeout so concurrent writers queue
// instead of failing.
func Open(cfg Config) (*sql.DB, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverCGO
	}
	if cfg.Driver != DriverCGO && cfg.Driver != DriverPureGo {
		return nil, fmt.Errorf("unknown sqlite driver %q (want %s|%s)", cfg.Driver, DriverCGO, DriverPureGo)
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if !strings.HasPrefix(cfg.Path, "file:") {
		abs, err := filepath.Abs(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		cfg.Path = abs
	}

	db, err := sql.Open(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps in-memory
	// databases from being split across connections.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	return db, nil
}

// OpenPebble opens (creating if needed) a Pebble key-value store.
func OpenPebble(path string) (*pebble.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("pebble path is required")
	}
	cache := pebble.NewCache(16 << 20)
	defer cache.Unref()
	opts := &pebble.Options{
		Cache:        cache,
		MemTableSize: 16 << 20,
		BytesPerSync: 512 << 10,
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble db at %s: %w", path, err)
	}
	return db, nil
}
