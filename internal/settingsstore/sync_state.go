package settingsstore

import (
	"context"
	"time"

	"github.com/mrlokans/prayerbook/internal/entities"
)

const (
	settingKeyLastSyncStatus  = "last_sync_status"
	settingKeyLastSyncMessage = "last_sync_message"
)

// SyncStatus is the outcome of the last sync cycle.
type SyncStatus struct {
	Version    string     `json:"version,omitempty"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	Status     string     `json:"status,omitempty"`
	Message    string     `json:"message,omitempty"`
}

// GetVersion returns the dataset version of the last successful full sync,
// or "" when the mirror was never filled.
func (s *SettingsStore) GetVersion(ctx context.Context) (string, error) {
	v, _, err := s.GetItem(ctx, entities.SettingKeyVersion)
	return v, err
}

func (s *SettingsStore) SetVersion(ctx context.Context, version string) error {
	return s.SetItem(ctx, entities.SettingKeyVersion, version)
}

func (s *SettingsStore) GetPayPalLink(ctx context.Context) (string, error) {
	v, _, err := s.GetItem(ctx, entities.SettingKeyPayPalLink)
	return v, err
}

func (s *SettingsStore) SetPayPalLink(ctx context.Context, link string) error {
	return s.SetItem(ctx, entities.SettingKeyPayPalLink, link)
}

// GetLastSyncAt returns nil when no sync has completed yet or the stored value is unreadable.
func (s *SettingsStore) GetLastSyncAt(ctx context.Context) (*time.Time, error) {
	v, ok, err := s.GetItem(ctx, entities.SettingKeyLastSyncAt)
	if err != nil || !ok {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, nil
	}
	return &t, nil
}

func (s *SettingsStore) SetLastSyncAt(ctx context.Context, at time.Time) error {
	return s.SetItem(ctx, entities.SettingKeyLastSyncAt, at.UTC().Format(time.RFC3339))
}

// SetLastSyncStatus records the status and message of the most recent cycle.
func (s *SettingsStore) SetLastSyncStatus(ctx context.Context, status, message string) error {
	if err := s.SetItem(ctx, settingKeyLastSyncStatus, status); err != nil {
		return err
	}
	return s.SetItem(ctx, settingKeyLastSyncMessage, message)
}

// GetSyncStatus collects everything the store knows about the last sync.
func (s *SettingsStore) GetSyncStatus(ctx context.Context) (SyncStatus, error) {
	var status SyncStatus
	var err error

	if status.Version, err = s.GetVersion(ctx); err != nil {
		return status, err
	}
	if status.LastSyncAt, err = s.GetLastSyncAt(ctx); err != nil {
		return status, err
	}
	if status.Status, _, err = s.GetItem(ctx, settingKeyLastSyncStatus); err != nil {
		return status, err
	}
	if status.Message, _, err = s.GetItem(ctx, settingKeyLastSyncMessage); err != nil {
		return status, err
	}
	return status, nil
}
