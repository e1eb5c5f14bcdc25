package database_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mrlokans/prayerbook/internal/database"
	"github.com/mrlokans/prayerbook/internal/database/dbtest"
	"github.com/mrlokans/prayerbook/internal/entities"
)

func TestNewDatabase_CreateTablesIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "prayerbook.db")

	db, err := database.NewDatabase(dbPath, database.WithLogLevel(gormlogger.Silent))
	require.NoError(t, err)

	require.NoError(t, db.DB.Create(&entities.Category{ID: 1, Title: "Morgen"}).Error)
	require.NoError(t, db.CreateTables())
	require.NoError(t, db.CreateTables())
	require.NoError(t, db.Close())

	reopened, err := database.NewDatabase(dbPath, database.WithLogLevel(gormlogger.Silent))
	require.NoError(t, err)
	defer reopened.Close()

	var count int64
	require.NoError(t, reopened.DB.Model(&entities.Category{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestNewDatabase_Pragmas(t *testing.T) {
	db := dbtest.Open(t)

	var journal string
	require.NoError(t, db.DB.Raw("PRAGMA journal_mode").Scan(&journal).Error)
	assert.Equal(t, "wal", journal)

	var fk int
	require.NoError(t, db.DB.Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	assert.Equal(t, 1, fk)
}

func TestForeignKeys_CascadeOnPrayerDelete(t *testing.T) {
	db := dbtest.Open(t)

	require.NoError(t, db.DB.Create(&entities.Category{ID: 1, Title: "Morgen"}).Error)
	require.NoError(t, db.DB.Create(&entities.Prayer{ID: 10, Name: "Fajr", CategoryID: 1}).Error)
	require.NoError(t, db.DB.Create(&entities.PrayerTranslation{ID: 100, PrayerID: 10, LanguageCode: "DE"}).Error)
	require.NoError(t, db.DB.Create(&entities.Favorite{PrayerID: 10}).Error)

	require.NoError(t, db.DB.Exec("DELETE FROM prayers WHERE id = ?", 10).Error)

	var translations, favorites int64
	require.NoError(t, db.DB.Model(&entities.PrayerTranslation{}).Count(&translations).Error)
	require.NoError(t, db.DB.Model(&entities.Favorite{}).Count(&favorites).Error)
	assert.Zero(t, translations)
	assert.Zero(t, favorites)
}

func TestForeignKeys_ParentDeleteDetachesChildren(t *testing.T) {
	db := dbtest.Open(t)

	parent := int64(1)
	require.NoError(t, db.DB.Create(&entities.Category{ID: 1, Title: "Root"}).Error)
	require.NoError(t, db.DB.Create(&entities.Category{ID: 2, Title: "Child", ParentID: &parent}).Error)

	require.NoError(t, db.DB.Exec("DELETE FROM categories WHERE id = ?", 1).Error)

	var child entities.Category
	require.NoError(t, db.DB.First(&child, 2).Error)
	assert.Nil(t, child.ParentID)
}

func TestForeignKeys_RejectOrphanPrayer(t *testing.T) {
	db := dbtest.Open(t)

	err := db.DB.Create(&entities.Prayer{ID: 1, Name: "Orphan", CategoryID: 99}).Error
	assert.Error(t, err)
}

func TestIsLockedError(t *testing.T) {
	assert.False(t, database.IsLockedError(nil))
	assert.False(t, database.IsLockedError(errors.New("boom")))
	assert.True(t, database.IsLockedError(sqlite3.Error{Code: sqlite3.ErrBusy}))
	assert.True(t, database.IsLockedError(fmt.Errorf("sync prayers: %w", sqlite3.Error{Code: sqlite3.ErrLocked})))
	assert.True(t, database.IsLockedError(errors.New("database is locked")))
}

func TestDuplicateUserCategoryError(t *testing.T) {
	err := fmt.Errorf("create: %w", &database.DuplicateUserCategoryError{Title: "Abend"})

	assert.ErrorIs(t, err, database.ErrDuplicateUserCategory)
	var dup *database.DuplicateUserCategoryError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "Abend", dup.Title)
}

func TestSiblingPath(t *testing.T) {
	assert.Equal(t, "./prayerbook-kv.db", database.SiblingPath("./prayerbook.db", "kv"))
	assert.Equal(t, "/data/app-tasks.db", database.SiblingPath("/data/app", "tasks"))
}
