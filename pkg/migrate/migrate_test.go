package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweetfrozen/storefront/pkg/db"
	"gorm.io/driver/sqlite"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateEmbedded())
}

func TestKVEntriesMigrationContainsSchema(t *testing.T) {
	data, err := embedded.ReadFile("migrations/20250105120000_create_kv_entries.sql")
	require.NoError(t, err)
	content := string(data)
	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS kv_entries",
		"entry_key TEXT PRIMARY KEY",
		"CREATE INDEX IF NOT EXISTS idx_kv_entries_updated_at",
		"DROP TABLE IF EXISTS kv_entries",
	} {
		assert.Contains(t, content, sub)
	}
}

func TestRunUpOnSQLite(t *testing.T) {
	conn, err := db.Open(sqlite.Open("file::memory:"))
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Run(context.Background(), sqlDB, "sqlite3", "up"))

	var name string
	row := sqlDB.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='kv_entries'`)
	require.NoError(t, row.Scan(&name))
	assert.Equal(t, "kv_entries", name)
}

func TestCreateAndValidateDir(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	path, err := CreateSQLMigration(dir, "Add Orders Index!", now)
	require.NoError(t, err)
	assert.Equal(t, "20250301100000_add_orders_index.sql", filepath.Base(path))
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "Add Orders Index!", now)
	assert.Error(t, err, "duplicate migration should fail")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up"), 0o644))
	err = ValidateDir(dir)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid migration filename"))
}
