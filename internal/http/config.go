package http

import (
	"github.com/mrlokans/prayerbook/internal/database"
)

// Queries is everything the read API needs from the query façade.
type Queries interface {
	CategoryQueries
	PrayerQueries
	FavouritesQueries
	UserCategoryQueries
	PrayerCounter
	PayPalReader
}

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Queries  Queries

	// Sync
	SyncEngine SyncEngine
	SyncState  SyncStateReader
	SyncRuns   RunHistory
	Scheduler  ScheduleInfo

	// Notices and domain events (optional)
	Events EventSource

	// Task queue client (optional)
	TaskClient TaskQueue

	// Manual sync triggers per second; zero disables limiting
	TriggerRPS   float64
	TriggerBurst int

	// Application info
	Version string
}
