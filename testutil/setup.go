package testutil

import (
	"path/filepath"
	"testing"

	"github.com/yomogi/linkup/cache"
	"github.com/yomogi/linkup/config"
	dbadapter "github.com/yomogi/linkup/db"
	"github.com/yomogi/linkup/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SetupTestDB creates a throwaway SQLite DB under t.TempDir and runs
// AutoMigrate. A file-backed DB is used instead of :memory: because gorm's
// connection pool would give each pooled connection its own empty
// in-memory database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbadapter.Open(config.DatabaseConfig{
		Mode:       dbadapter.ModeSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "linkup_test.db"),
	})
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	return db
}

// SetupTestCache creates an in-process cache (no Redis required).
func SetupTestCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.New(cache.Config{}) // empty RedisAddr → LocalCache
	require.NoError(t, err, "SetupTestCache: New")
	return c
}
