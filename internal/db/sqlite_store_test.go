package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *KVStore {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	s, err := NewKVStore(db)
	require.NoError(t, err)
	return s
}

func TestKVStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Get(ctx, "token")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SetMany(ctx, map[string]string{"token": "a", "user": "{}"}))
	require.NoError(t, s.Set(ctx, "token", "b"))
	v, err := s.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	require.NoError(t, s.Delete(ctx, "token", "user", "missing"))
	_, err = s.Get(ctx, "user")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKVStoreReplaceSetsAndDeletesTogether(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.SetMany(ctx, map[string]string{"token": "old", "user": "{}"}))

	require.NoError(t, s.Replace(ctx, map[string]string{"token": "new"}, []string{"user", "missing"}))
	v, err := s.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "new", v)
	_, err = s.Get(ctx, "user")
	assert.ErrorIs(t, err, ErrNotFound)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, s.Replace(cancelled, map[string]string{"token": "lost"}, []string{"token"}))
	v, err = s.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "new", v)
}

func TestRunMigrationsIsRepeatable(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(ctx, db, ""))
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestRunMigrationsFromDirectory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_extra.sql"), []byte(`CREATE TABLE extra (id INTEGER);`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`ignored`), 0o600))

	db, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, RunMigrations(ctx, db, dir))
	_, err = db.Exec(`INSERT INTO extra(id) VALUES (1)`)
	assert.NoError(t, err)

	// missing directory falls back to the embedded set
	assert.NoError(t, RunMigrations(ctx, db, filepath.Join(dir, "absent")))
}
