// Package settingsstore is the fast key/value store kept beside the local
// database. It holds scalars that must be readable without touching the
// mirror tables: the synced dataset version, the cached PayPal link and the
// outcome of the last sync.
package settingsstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mrlokans/prayerbook/internal/database"
	"github.com/mrlokans/prayerbook/internal/database/settings"
)

type SettingsStore struct {
	db   *gorm.DB
	repo *settings.Repository
}

// Open opens (or creates) the key/value database at path.
func Open(path string) (*SettingsStore, error) {
	db, err := gorm.Open(sqlite.Open(database.DSN(path)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open key/value store: %w", err)
	}
	store := New(db)
	if err := store.repo.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate key/value store: %w", err)
	}
	return store, nil
}

// New wraps an already opened database.
func New(db *gorm.DB) *SettingsStore {
	return &SettingsStore{db: db, repo: settings.NewRepository(db)}
}

// GetItem returns the value stored under key and whether it exists.
func (s *SettingsStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	setting, err := s.repo.GetSetting(ctx, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return setting.Value, true, nil
}

func (s *SettingsStore) SetItem(ctx context.Context, key, value string) error {
	return s.repo.SetSetting(ctx, key, value)
}

func (s *SettingsStore) RemoveItem(ctx context.Context, key string) error {
	return s.repo.DeleteSetting(ctx, key)
}

func (s *SettingsStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
