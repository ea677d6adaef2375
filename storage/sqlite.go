// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package storage

import (
	"database/sql"

	"github.com/juju/errors"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key   TEXT PRIMARY KEY,
    value BLOB NOT NULL
);
`

// SQLiteBackend persists key-value pairs in a single-file sqlite
// database. It is safe for concurrent use by multiple goroutines.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens (creating if necessary) the database at path and
// ensures the schema exists.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Annotatef(err, "opening database %q", path)
	}
	// A single writer avoids SQLITE_BUSY on concurrent puts.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Annotatef(err, "creating schema in %q", path)
	}
	return &SQLiteBackend{db: db}, nil
}

// Get implements Backend.
func (b *SQLiteBackend) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := b.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Annotatef(err, "reading key %q", key)
	}
	return value, true, nil
}

// Put implements Backend. The write happens inside a transaction so a
// failure cannot leave a partially updated value behind.
func (b *SQLiteBackend) Put(key string, value []byte) error {
	tx, err := b.db.Begin()
	if err != nil {
		return errors.Trace(err)
	}
	_, err = tx.Exec(`
INSERT INTO kv (key, value) VALUES (?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		_ = tx.Rollback()
		return errors.Annotatef(err, "writing key %q", key)
	}
	return errors.Trace(tx.Commit())
}

// Delete implements Backend.
func (b *SQLiteBackend) Delete(key string) error {
	_, err := b.db.Exec("DELETE FROM kv WHERE key = ?", key)
	return errors.Annotatef(err, "deleting key %q", key)
}

// Close implements Backend.
func (b *SQLiteBackend) Close() error {
	return errors.Trace(b.db.Close())
}
