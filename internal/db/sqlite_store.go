package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens (creating if needed) the SQLite file at path and applies the
// migrations. ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("create session dir: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)
	if err := RunMigrations(ctx, db, ""); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// KVStore is a string key/value table.
type KVStore struct {
	db  *sql.DB
	now func() time.Time
}

var ErrNotFound = errors.New("key not found")

func NewKVStore(db *sql.DB) (*KVStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	for _, stmt := range []string{"PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL"} {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &KVStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Get returns ErrNotFound for a missing key.
func (s *KVStore) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return v, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	return s.SetMany(ctx, map[string]string{key: value})
}

// SetMany writes all pairs in one transaction.
func (s *KVStore) SetMany(ctx context.Context, pairs map[string]string) error {
	return s.Replace(ctx, pairs, nil)
}

// Replace upserts set and removes del in one transaction, so readers never
// see a mix of old and new values.
func (s *KVStore) Replace(ctx context.Context, set map[string]string, del []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	at := s.now().Format(time.RFC3339Nano)
	for k, v := range set {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO kv(key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			k, v, at); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("set %s: %w", k, err)
		}
	}
	for _, k := range del {
		if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, k); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// Delete removes keys; missing keys are not an error.
func (s *KVStore) Delete(ctx context.Context, keys ...string) error {
	return s.Replace(ctx, nil, keys)
}
