package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	db, err := OpenSQLite(dbPath)
	require.NoError(t, err)

	err = db.Migrate(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenSQLite_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "subdir", "test.db")

	db, err := OpenSQLite(dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(filepath.Join(dir, "subdir"))
	assert.NoError(t, err, "should create parent directory")
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)

	// Running migrate again should be a no-op
	err := db.Migrate(context.Background())
	assert.NoError(t, err)
}

func TestSQLiteStore_GetSetRemove(t *testing.T) {
	s := newTestDB(t).Namespace(NamespaceLocal)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "portfolio_config")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "portfolio_config", `{"a":1}`))
	v, ok, err := s.Get(ctx, "portfolio_config")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":1}`, v)

	// Overwrite
	require.NoError(t, s.Set(ctx, "portfolio_config", `{"a":2}`))
	v, _, err = s.Get(ctx, "portfolio_config")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, v)

	require.NoError(t, s.Remove(ctx, "portfolio_config"))
	_, ok, err = s.Get(ctx, "portfolio_config")
	require.NoError(t, err)
	assert.False(t, ok)

	// Removing again is fine
	assert.NoError(t, s.Remove(ctx, "portfolio_config"))
}

func TestSQLiteStore_NamespacesAreIsolated(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	local := db.Namespace("local")
	other := db.Namespace("other")

	require.NoError(t, local.Set(ctx, "k", "local"))
	require.NoError(t, other.Set(ctx, "k", "other"))

	v, _, err := local.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "local", v)

	keys, err := other.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, keys)

	require.NoError(t, other.Remove(ctx, "k"))
	_, ok, err := local.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok, "removing from one namespace must not touch another")
}

func TestSQLiteStore_Keys(t *testing.T) {
	s := newTestDB(t).Namespace(NamespaceLocal)
	ctx := context.Background()

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, s.Set(ctx, "b", "2"))
	require.NoError(t, s.Set(ctx, "a", "1"))

	keys, err = s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "folio.db")
	ctx := context.Background()

	db, err := OpenSQLite(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Namespace(NamespaceLocal).Set(ctx, "k", "v"))
	require.NoError(t, db.Close())

	db, err = OpenSQLite(dbPath)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate(ctx))

	v, ok, err := db.Namespace(NamespaceLocal).Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}
