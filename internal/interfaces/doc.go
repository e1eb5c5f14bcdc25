// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Mirror Reads (internal/query/interfaces.go)
//
//   - CategoryStore: category tree lookups and descendant resolution
//   - PrayerStore: prayer listings joined to one translation
//   - FavoriteStore: local favourite marks
//   - UserCategoryStore: user-defined collections
//   - PayPalSource: donation link, cached or mirrored
//
// ## Sync Engine (internal/syncer/interfaces.go)
//
//   - RemoteSource: whole-table fetches from the published dataset
//   - ChangeSubscriber: realtime change notifications
//   - ConnectivityProbe: gate for every cycle plus the reconnect listener
//   - Store, RunRecorder: mirror writes and run history
//   - KeyValueStore: version marker and cached scalars
//
// ## Notices (internal/notices)
//
//   - Notifier: user-visible notices such as offline or search_no_results
//   - Publisher: domain events fanned out to the HTTP event stream
//
// ## HTTP (internal/http)
//
// Each controller declares the narrow interface it needs; *query.Service
// satisfies all query-side ones through http.Queries.
//
// # Adding a New Mirrored Table
//
//  1. Add the entity in internal/entities and register it in database.mirrorTables.
//
//  2. Add a row type and FetchX to internal/remote, converting it in
//     internal/syncer/convert.go.
//
//  3. Add SyncX to internal/database/sync and call it from the orchestrator's
//     full sync, keeping parents ahead of children.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
