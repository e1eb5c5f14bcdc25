package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"pgregory.net/rapid"

	"github.com/mrlokans/prayerbook/internal/database/dbtest"
	"github.com/mrlokans/prayerbook/internal/entities"
)

func setupTestDB(t *testing.T, prune bool) (*gorm.DB, *Repository) {
	t.Helper()
	db := dbtest.Open(t)
	return db.DB, NewRepository(db.DB, prune)
}

func ptr[T any](v T) *T {
	return &v
}

func seedTree(t *testing.T, repo *Repository) {
	t.Helper()
	ctx := context.Background()

	_, err := repo.SyncCategories(ctx, []entities.Category{
		{ID: 2, Title: "Morgen", ParentID: ptr(int64(1))},
		{ID: 1, Title: "Tag"},
	})
	require.NoError(t, err)

	_, err = repo.SyncPrayers(ctx, []entities.Prayer{
		{ID: 10, Name: "Fajr", CategoryID: 2, LanguagesAvailable: entities.Languages{"DE", "EN"}},
		{ID: 11, Name: "Dhuhr", CategoryID: 1, LanguagesAvailable: entities.Languages{"DE"}},
	})
	require.NoError(t, err)

	_, err = repo.SyncTranslations(ctx, []entities.PrayerTranslation{
		{ID: 100, PrayerID: 10, LanguageCode: "DE", MainBody: ptr("Gebet am Morgen")},
		{ID: 101, PrayerID: 10, LanguageCode: "EN", MainBody: ptr("Morning prayer")},
	})
	require.NoError(t, err)
}

func TestRepository_SyncCategories_ParentsFirst(t *testing.T) {
	db, repo := setupTestDB(t, true)

	result, err := repo.SyncCategories(context.Background(), []entities.Category{
		{ID: 3, Title: "Enkel", ParentID: ptr(int64(2))},
		{ID: 2, Title: "Kind", ParentID: ptr(int64(1))},
		{ID: 1, Title: "Wurzel"},
	})
	require.NoError(t, err)
	assert.Equal(t, TableResult{Table: TableCategories, Upserted: 3}, result)

	var count int64
	require.NoError(t, db.Model(&entities.Category{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestRepository_SyncCategories_CycleDoesNotFail(t *testing.T) {
	db, repo := setupTestDB(t, true)

	_, err := repo.SyncCategories(context.Background(), []entities.Category{
		{ID: 1, Title: "A", ParentID: ptr(int64(2))},
		{ID: 2, Title: "B", ParentID: ptr(int64(1))},
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&entities.Category{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestRepository_SyncPrayers_UpdatesInPlaceAndKeepsFavourites(t *testing.T) {
	db, repo := setupTestDB(t, true)
	seedTree(t, repo)
	require.NoError(t, db.Create(&entities.Favorite{PrayerID: 10, AddedAt: time.Now()}).Error)

	_, err := repo.SyncPrayers(context.Background(), []entities.Prayer{
		{ID: 10, Name: "Fajr (neu)", CategoryID: 2},
		{ID: 11, Name: "Dhuhr", CategoryID: 1},
	})
	require.NoError(t, err)

	var prayer entities.Prayer
	require.NoError(t, db.First(&prayer, 10).Error)
	assert.Equal(t, "Fajr (neu)", prayer.Name)

	var favorites, translations int64
	require.NoError(t, db.Model(&entities.Favorite{}).Count(&favorites).Error)
	require.NoError(t, db.Model(&entities.PrayerTranslation{}).Count(&translations).Error)
	assert.Equal(t, int64(1), favorites)
	assert.Equal(t, int64(2), translations)
}

func TestRepository_SyncPrayers_PrunesMissingAndCascades(t *testing.T) {
	db, repo := setupTestDB(t, true)
	seedTree(t, repo)
	require.NoError(t, db.Create(&entities.Favorite{PrayerID: 10, AddedAt: time.Now()}).Error)

	result, err := repo.SyncPrayers(context.Background(), []entities.Prayer{
		{ID: 11, Name: "Dhuhr", CategoryID: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pruned)

	var prayers, favorites, translations int64
	require.NoError(t, db.Model(&entities.Prayer{}).Count(&prayers).Error)
	require.NoError(t, db.Model(&entities.Favorite{}).Count(&favorites).Error)
	require.NoError(t, db.Model(&entities.PrayerTranslation{}).Count(&translations).Error)
	assert.Equal(t, int64(1), prayers)
	assert.Zero(t, favorites)
	assert.Zero(t, translations)
}

func TestRepository_EmptyBatchNeverPrunes(t *testing.T) {
	db, repo := setupTestDB(t, true)
	seedTree(t, repo)

	result, err := repo.SyncPrayers(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, result.Pruned)

	pruned, err := repo.PruneCategories(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, pruned.Pruned)

	var prayers int64
	require.NoError(t, db.Model(&entities.Prayer{}).Count(&prayers).Error)
	assert.Equal(t, int64(2), prayers)
}

func TestRepository_PruningDisabled(t *testing.T) {
	db, repo := setupTestDB(t, false)
	seedTree(t, repo)

	result, err := repo.SyncPrayers(context.Background(), []entities.Prayer{{ID: 11, Name: "Dhuhr", CategoryID: 1}})
	require.NoError(t, err)
	assert.Zero(t, result.Pruned)

	var prayers int64
	require.NoError(t, db.Model(&entities.Prayer{}).Count(&prayers).Error)
	assert.Equal(t, int64(2), prayers)
}

func TestRepository_PruneCategories(t *testing.T) {
	db, repo := setupTestDB(t, true)
	seedTree(t, repo)

	// Category 2 disappears remotely after its prayer moved to category 1.
	_, err := repo.SyncPrayers(context.Background(), []entities.Prayer{
		{ID: 10, Name: "Fajr", CategoryID: 1},
		{ID: 11, Name: "Dhuhr", CategoryID: 1},
	})
	require.NoError(t, err)

	result, err := repo.PruneCategories(context.Background(), []int64{1})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pruned)

	var prayers int64
	require.NoError(t, db.Model(&entities.Prayer{}).Count(&prayers).Error)
	assert.Equal(t, int64(2), prayers)
}

func TestRepository_FailedTableRollsBackAlone(t *testing.T) {
	db, repo := setupTestDB(t, true)
	seedTree(t, repo)

	_, err := repo.SyncTranslations(context.Background(), []entities.PrayerTranslation{
		{ID: 100, PrayerID: 10, LanguageCode: "DE", MainBody: ptr("geändert")},
		{ID: 200, PrayerID: 999, LanguageCode: "DE"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), TableTranslations)

	var translation entities.PrayerTranslation
	require.NoError(t, db.First(&translation, 100).Error)
	assert.Equal(t, "Gebet am Morgen", *translation.MainBody)

	var prayers int64
	require.NoError(t, db.Model(&entities.Prayer{}).Count(&prayers).Error)
	assert.Equal(t, int64(2), prayers)
}

func TestRepository_SyncTranslations_NewIDReplacesSameLanguage(t *testing.T) {
	db, repo := setupTestDB(t, true)
	seedTree(t, repo)

	result, err := repo.SyncTranslations(context.Background(), []entities.PrayerTranslation{
		{ID: 200, PrayerID: 10, LanguageCode: "DE", MainBody: ptr("Neues Morgengebet")},
		{ID: 101, PrayerID: 10, LanguageCode: "EN", MainBody: ptr("Morning prayer")},
	})
	require.NoError(t, err)
	assert.Equal(t, TableResult{Table: TableTranslations, Upserted: 2, Replaced: 1}, result)

	var translations []entities.PrayerTranslation
	require.NoError(t, db.Order("id").Find(&translations).Error)
	require.Len(t, translations, 2)
	assert.Equal(t, int64(101), translations[0].ID)
	assert.Equal(t, int64(200), translations[1].ID)
	assert.Equal(t, "DE", translations[1].LanguageCode)
	assert.Equal(t, "Neues Morgengebet", *translations[1].MainBody)
}

func TestRepository_SyncTranslations_ReplacesWithoutPruning(t *testing.T) {
	db, repo := setupTestDB(t, false)
	seedTree(t, repo)

	// Ids swapped between the two languages of one prayer.
	_, err := repo.SyncTranslations(context.Background(), []entities.PrayerTranslation{
		{ID: 100, PrayerID: 10, LanguageCode: "EN", MainBody: ptr("Morning prayer")},
		{ID: 101, PrayerID: 10, LanguageCode: "DE", MainBody: ptr("Gebet am Morgen")},
	})
	require.NoError(t, err)

	var translations []entities.PrayerTranslation
	require.NoError(t, db.Order("id").Find(&translations).Error)
	require.Len(t, translations, 2)
	assert.Equal(t, "EN", translations[0].LanguageCode)
	assert.Equal(t, "DE", translations[1].LanguageCode)
}

func TestRepository_SyncPayPal(t *testing.T) {
	_, repo := setupTestDB(t, true)
	ctx := context.Background()

	link, err := repo.GetPayPalLink(ctx)
	require.NoError(t, err)
	assert.Empty(t, link)

	_, err = repo.SyncPayPal(ctx, "https://paypal.me/a")
	require.NoError(t, err)
	_, err = repo.SyncPayPal(ctx, "https://paypal.me/b")
	require.NoError(t, err)

	link, err = repo.GetPayPalLink(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://paypal.me/b", link)
}

func TestRepository_Runs(t *testing.T) {
	db, repo := setupTestDB(t, true)
	ctx := context.Background()

	run, err := repo.RecordRun(ctx, entities.SyncTriggerStartup)
	require.NoError(t, err)
	assert.Equal(t, entities.SyncStatusRunning, run.Status)

	results := []TableResult{{Table: TableCategories, Upserted: 2}, {Table: TablePrayers, Upserted: 3}}
	require.NoError(t, repo.CompleteRun(ctx, run, entities.SyncStatusFailed, "7", results, errors.New("boom")))

	runs, err := repo.LatestRuns(ctx, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, entities.SyncStatusFailed, runs[0].Status)
	assert.Equal(t, 2, runs[0].Tables)
	assert.Equal(t, 5, runs[0].Rows)
	assert.Equal(t, "boom", runs[0].Error)
	assert.NotNil(t, runs[0].CompletedAt)

	stale := entities.SyncRun{Trigger: entities.SyncTriggerManual, Status: entities.SyncStatusRunning, StartedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, db.Create(&stale).Error)
	n, err := repo.FailStaleRuns(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestOrderParentsFirst(t *testing.T) {
	ordered := orderParentsFirst([]entities.Category{
		{ID: 4, ParentID: ptr(int64(3))},
		{ID: 3, ParentID: ptr(int64(1))},
		{ID: 2, ParentID: ptr(int64(1))},
		{ID: 1},
		{ID: 5, ParentID: ptr(int64(42))},
	})

	pos := map[int64]int{}
	for i, c := range ordered {
		pos[c.ID] = i
	}
	assert.Less(t, pos[1], pos[2])
	assert.Less(t, pos[1], pos[3])
	assert.Less(t, pos[3], pos[4])
	assert.Len(t, ordered, 5)
}

// Syncing the same batch twice leaves the tables exactly as syncing it once.
func TestRepository_UpsertIsIdempotent(t *testing.T) {
	db, repo := setupTestDB(t, true)
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		categoryIDs := rapid.SliceOfNDistinct(rapid.Int64Range(1, 500), 1, 20, rapid.ID[int64]).Draw(rt, "categories")
		categories := make([]entities.Category, len(categoryIDs))
		for i, id := range categoryIDs {
			categories[i] = entities.Category{ID: id, Title: rapid.StringMatching(`[A-Za-z ]{1,12}`).Draw(rt, "title")}
			if i > 0 && rapid.Bool().Draw(rt, "hasParent") {
				parent := categoryIDs[rapid.IntRange(0, i-1).Draw(rt, "parent")]
				categories[i].ParentID = &parent
			}
		}

		prayerIDs := rapid.SliceOfNDistinct(rapid.Int64Range(1, 1000), 0, 30, rapid.ID[int64]).Draw(rt, "prayers")
		prayers := make([]entities.Prayer, len(prayerIDs))
		for i, id := range prayerIDs {
			prayers[i] = entities.Prayer{
				ID:                 id,
				Name:               rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "name"),
				CategoryID:         rapid.SampledFrom(categoryIDs).Draw(rt, "category"),
				LanguagesAvailable: entities.Languages{"DE"},
			}
		}

		// Start from an empty mirror each iteration.
		require.NoError(rt, db.Exec("DELETE FROM prayers").Error)
		require.NoError(rt, db.Exec("DELETE FROM categories").Error)

		sync := func() {
			_, err := repo.SyncCategories(ctx, categories)
			require.NoError(rt, err)
			_, err = repo.SyncPrayers(ctx, prayers)
			require.NoError(rt, err)
		}

		sync()
		first := snapshot(rt, db)
		sync()
		second := snapshot(rt, db)

		assert.Equal(rt, first, second)
		assert.Len(rt, second.categories, len(categories))
		assert.Len(rt, second.prayers, len(prayers))
	})
}

type tableState struct {
	categories map[int64]string
	prayers    map[int64]string
}

func snapshot(t require.TestingT, db *gorm.DB) tableState {
	var categories []entities.Category
	var prayers []entities.Prayer
	require.NoError(t, db.Find(&categories).Error)
	require.NoError(t, db.Find(&prayers).Error)

	state := tableState{categories: map[int64]string{}, prayers: map[int64]string{}}
	for _, c := range categories {
		parent := int64(0)
		if c.ParentID != nil {
			parent = *c.ParentID
		}
		state.categories[c.ID] = fmt.Sprintf("%s|%d", c.Title, parent)
	}
	for _, p := range prayers {
		state.prayers[p.ID] = fmt.Sprintf("%s|%d", p.Name, p.CategoryID)
	}
	return state
}
