package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/prayerbook/internal/connectivity"
	"github.com/mrlokans/prayerbook/internal/database"
	"github.com/mrlokans/prayerbook/internal/database/categories"
	"github.com/mrlokans/prayerbook/internal/database/favourites"
	"github.com/mrlokans/prayerbook/internal/database/prayers"
	dbsync "github.com/mrlokans/prayerbook/internal/database/sync"
	"github.com/mrlokans/prayerbook/internal/database/usercategories"
	"github.com/mrlokans/prayerbook/internal/http"
	"github.com/mrlokans/prayerbook/internal/notices"
	"github.com/mrlokans/prayerbook/internal/query"
	"github.com/mrlokans/prayerbook/internal/remote"
	"github.com/mrlokans/prayerbook/internal/scheduler"
	"github.com/mrlokans/prayerbook/internal/settingsstore"
	"github.com/mrlokans/prayerbook/internal/syncer"
	"github.com/mrlokans/prayerbook/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ query.CategoryStore = (*categories.Repository)(nil)
var _ query.PrayerStore = (*prayers.Repository)(nil)
var _ query.FavoriteStore = (*favourites.Repository)(nil)
var _ query.UserCategoryStore = (*usercategories.Repository)(nil)

// PayPalSource implementations: the cached scalar and the mirrored table
var _ query.PayPalSource = (*settingsstore.SettingsStore)(nil)
var _ query.PayPalSource = (*dbsync.Repository)(nil)

// =============================================================================
// Sync Engine
// =============================================================================

var _ syncer.Schema = (*database.Database)(nil)
var _ syncer.PrayerCounter = (*prayers.Repository)(nil)
var _ syncer.Store = (*dbsync.Repository)(nil)
var _ syncer.RunRecorder = (*dbsync.Repository)(nil)
var _ syncer.KeyValueStore = (*settingsstore.SettingsStore)(nil)
var _ syncer.RemoteSource = (*remote.Client)(nil)
var _ syncer.ChangeSubscriber = (*remote.Realtime)(nil)
var _ syncer.ConnectivityProbe = (*connectivity.Probe)(nil)

// Notifier and Publisher implementations
var _ notices.Notifier = (*notices.Hub)(nil)
var _ notices.Publisher = (*notices.Hub)(nil)
var _ notices.Notifier = (*notices.Recorder)(nil)
var _ notices.Publisher = (*notices.Recorder)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ scheduler.Triggerer = (*syncer.Orchestrator)(nil)
var _ tasks.CycleRunner = (*syncer.Orchestrator)(nil)
var _ tasks.PayPalRefresher = (*syncer.Orchestrator)(nil)

// =============================================================================
// HTTP Layer
// =============================================================================

var _ http.Queries = (*query.Service)(nil)
var _ http.SyncEngine = (*syncer.Orchestrator)(nil)
var _ http.SyncStateReader = (*settingsstore.SettingsStore)(nil)
var _ http.RunHistory = (*dbsync.Repository)(nil)
var _ http.ScheduleInfo = (*scheduler.VersionCheckScheduler)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)
var _ http.EventSource = (*notices.Hub)(nil)
