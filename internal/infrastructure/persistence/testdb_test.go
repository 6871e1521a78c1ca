package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thehub/backend/internal/infrastructure/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newSQLiteDB opens a migrated in-memory database that lives as long as the test
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(sqlite.Open(":memory:"), &config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	return db.DB
}
