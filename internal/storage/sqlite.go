package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"yd-go/internal/storage/migrations"
	"yd-go/internal/yd"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStorage keeps items in a single SQLite table.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage opens (creating if needed) the database at path and
// migrates it. path can be ":memory:".
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	s := &SQLiteStorage{db: db, path: path}
	if err := s.CheckMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenConnection opens and configures a SQLite database connection.
// In-memory databases are pinned to a single connection, since every new
// connection to :memory: starts empty.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return db, nil
}

func (s *SQLiteStorage) GetItem(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(context.Background(),
		"SELECT value FROM items WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading item %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStorage) SetItem(key, value string) error {
	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO items (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	if err != nil {
		return fmt.Errorf("writing item %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStorage) RemoveItem(key string) error {
	if _, err := s.db.ExecContext(context.Background(), "DELETE FROM items WHERE key = ?", key); err != nil {
		return fmt.Errorf("removing item %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStorage) Keys() ([]string, error) {
	rows, err := s.db.QueryContext(context.Background(), "SELECT key FROM items ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Path returns the database file path (or ":memory:").
func (s *SQLiteStorage) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteStorage) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

var _ yd.Storage = (*SQLiteStorage)(nil)
