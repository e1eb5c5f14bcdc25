// Package database provides the local store: one embedded SQLite database
// mirroring the remote prayer dataset next to the user's own data.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go       # Connection setup, pragmas, schema creation
//	├── errors.go         # Sentinel errors and SQLite error classification
//	├── sync/             # Per-table upserts of remote rows, sync run history
//	├── categories/       # Category lookups and descendant resolution
//	├── prayers/          # Prayer and translation reads, search, pagination
//	├── favourites/       # Local favourites
//	├── usercategories/   # User-defined categories
//	└── dbtest/           # Test helper opening a throwaway database
//
// Mirror tables (categories, prayers, prayer_translations, languages, paypal)
// are only written by the sync repository. Local tables (favorites,
// user_categories, user_category_prayers, sync_runs) are never touched by sync,
// except through foreign key cascades when a mirrored prayer disappears.
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./prayerbook.db")
//
//	syncRepo := sync.NewRepository(db.DB)
//	prayersRepo := prayers.NewRepository(db.DB)
//
//	result, err := syncRepo.SyncPrayers(ctx, rows)
//	list, err := prayersRepo.SearchPrayers(ctx, "licht", "DE")
//
// # Interface Implementations
//
//   - sync.Repository: implements syncer.Store (partial)
//   - categories.Repository: implements query.CategoryStore
//   - prayers.Repository: implements query.PrayerStore
//   - favourites.Repository: implements query.FavouritesStore
//   - usercategories.Repository: implements query.UserCategoryStore
package database
