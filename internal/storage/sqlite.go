// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for cocreate.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cocreateai/cocreate-chat/internal/util"
)

// =============================================================================
// SQLITE BACKEND
// =============================================================================

// SQLiteBackend stores values in a key/value table of a SQLite database.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// NewSQLiteBackend opens (or creates) the database at path. Parent
// directories are created as needed.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	path = util.ExpandHome(path)
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection serializes writers and keeps :memory: databases alive.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	b := &SQLiteBackend{db: db, path: path}
	if err := b.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return b, nil
}

func (b *SQLiteBackend) createSchema() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at DATETIME NOT NULL
		)`)
	return err
}

// Path returns the database file path.
func (b *SQLiteBackend) Path() string {
	return b.path
}

// Get implements Backend.
func (b *SQLiteBackend) Get(key string) ([]byte, error) {
	var data []byte
	err := b.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Put implements Backend.
func (b *SQLiteBackend) Put(key string, data []byte) error {
	_, err := b.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Close implements Backend.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
