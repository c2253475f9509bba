// Package testutil provides an in-memory store with the production schema,
// partial unique indexes included.
package testutil

import (
	"testing"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/infra"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database and migrates it.
// A single connection serializes writers, so concurrent inserts reach the
// unique index one at a time instead of failing with SQLITE_LOCKED.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, infra.RunMigrations(db))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}
