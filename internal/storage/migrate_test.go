package storage_test

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"subwise/internal/storage"
)

var testMigrations = fstest.MapFS{
	"migrations/000001_blobs.up.sql":   {Data: []byte("CREATE TABLE blobs (key TEXT PRIMARY KEY, value BLOB);")},
	"migrations/000001_blobs.down.sql": {Data: []byte("DROP TABLE blobs;")},
}

func migrateOnce(t *testing.T, path string) error {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	require.NoError(t, err)
	return storage.Migrate(testMigrations, "migrations", "sqlite", driver)
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.db")
	require.NoError(t, migrateOnce(t, path))
	require.NoError(t, migrateOnce(t, path), "second run has nothing to apply")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	var name string
	require.NoError(t, db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='blobs'`).Scan(&name))
	assert.Equal(t, "blobs", name)
}

func TestMigrateMissingDirectory(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "missing.db"))
	require.NoError(t, err)
	defer db.Close()

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	require.NoError(t, err)
	assert.Error(t, storage.Migrate(testMigrations, "nope", "sqlite", driver))
}
