// Package dbtest opens throwaway SQLite databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"my-blog/pkg/common/config"
	"my-blog/pkg/common/database"
	postmodel "my-blog/pkg/core/post/model"
	usermodel "my-blog/pkg/core/user/model"
)

// New returns a migrated database living in t.TempDir(). It is closed when
// the test ends.
func New(t testing.TB) *database.Database {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Driver:      "sqlite",
		DSN:         filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000",
		MaxPoolSize: 1,
		LogLevel:    "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(context.Background(), usermodel.AutoMigrate, postmodel.AutoMigrate))
	return db
}
