package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// layoutVersion is stored in PRAGMA user_version. It changes whenever the
// tables or the resource body format change in a way older readers would
// misinterpret.
const layoutVersion = 1

// ErrNewerLayout is returned by Open for a database written by a newer
// version of this package.
var ErrNewerLayout = errors.New("database layout is newer than supported")

// connParams are applied by the driver to every pooled connection.
var connParams = url.Values{
	"_journal_mode": {"WAL"},
	"_synchronous":  {"NORMAL"},
	"_busy_timeout": {"5000"},
	"_foreign_keys": {"1"},
}

// Store persists envelopes and operation logs in one SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens the database at path, creating it and its tables if needed.
// path may be ":memory:".
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?"+connParams.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite has a single writer, and every connection to
	// ":memory:" would otherwise see its own empty database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := initLayout(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database. Closing twice is harmless.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// initLayout creates missing tables and stamps the layout version. A fresh
// database reports version 0.
func initLayout(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read layout version: %w", err)
	}
	if version > layoutVersion {
		return fmt.Errorf("%w: version %d, supported %d", ErrNewerLayout, version, layoutVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	if version < layoutVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", layoutVersion)); err != nil {
			return fmt.Errorf("write layout version: %w", err)
		}
	}
	return nil
}
