package syncer

import (
	"context"
	"time"

	dbsync "github.com/mrlokans/prayerbook/internal/database/sync"
	"github.com/mrlokans/prayerbook/internal/entities"
	"github.com/mrlokans/prayerbook/internal/remote"
)

// Schema creates the local tables.
type Schema interface {
	CreateTables() error
}

// PrayerCounter tells whether the mirror holds any content.
type PrayerCounter interface {
	GetPrayerCount(ctx context.Context) (int64, error)
}

// Store applies remote batches to the local mirror.
type Store interface {
	SyncCategories(ctx context.Context, rows []entities.Category) (dbsync.TableResult, error)
	SyncPrayers(ctx context.Context, rows []entities.Prayer) (dbsync.TableResult, error)
	SyncTranslations(ctx context.Context, rows []entities.PrayerTranslation) (dbsync.TableResult, error)
	SyncLanguages(ctx context.Context, rows []entities.Language) (dbsync.TableResult, error)
	SyncPayPal(ctx context.Context, link string) (dbsync.TableResult, error)
	PruneCategories(ctx context.Context, keep []int64) (dbsync.TableResult, error)
}

// RunRecorder keeps the history of cycles.
type RunRecorder interface {
	RecordRun(ctx context.Context, trigger entities.SyncTrigger) (*entities.SyncRun, error)
	CompleteRun(ctx context.Context, run *entities.SyncRun, status entities.SyncStatus, version string, results []dbsync.TableResult, runErr error) error
}

// RemoteSource reads the published dataset.
type RemoteSource interface {
	FetchCategories(ctx context.Context) ([]remote.CategoryRow, error)
	FetchPrayers(ctx context.Context) ([]remote.PrayerRow, error)
	FetchTranslations(ctx context.Context) ([]remote.TranslationRow, error)
	FetchLanguages(ctx context.Context) ([]remote.LanguageRow, error)
	FetchVersion(ctx context.Context) (string, error)
	FetchPayPalLink(ctx context.Context) (string, error)
}

// ChangeSubscriber delivers realtime change events until ctx is done.
type ChangeSubscriber interface {
	Subscribe(ctx context.Context, tables []string, handler remote.ChangeHandler) error
}

// ConnectivityProbe gates every cycle.
type ConnectivityProbe interface {
	CheckInternetConnection(ctx context.Context) bool
	SetupConnectivityListener(onRestored func())
}

// KeyValueStore holds the version marker and cached scalars.
type KeyValueStore interface {
	GetVersion(ctx context.Context) (string, error)
	SetVersion(ctx context.Context, version string) error
	SetPayPalLink(ctx context.Context, link string) error
	SetLastSyncAt(ctx context.Context, at time.Time) error
	SetLastSyncStatus(ctx context.Context, status, message string) error
}
