// Package dbtest opens throwaway local stores for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mrlokans/prayerbook/internal/database"
)

// Open creates a fresh database under t.TempDir and closes it when the test ends.
func Open(t testing.TB) *database.Database {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "prayerbook.db")

	db, err := database.NewDatabase(dbPath, database.WithLogLevel(gormlogger.Silent))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}
