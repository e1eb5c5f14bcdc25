package dbtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/prayerbook/internal/entities"
)

// FixtureBase is the created_at of the oldest fixture prayer; each following
// prayer is one hour newer.
var FixtureBase = time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)

// Seed loads a small mirror:
//
//	Tagesgebete(1) -> Morgen(2), Abend(3) -> Nacht(4)
//	Besondere Anlässe(5)
//
// Prayers 10..15 are one per hour, newest last. Prayer 14 has only an English
// translation and prayer 15 has a German translation without text.
func Seed(t testing.TB, db *gorm.DB) {
	t.Helper()
	one, three := int64(1), int64(3)
	categories := []entities.Category{
		{ID: 1, Title: "Tagesgebete"},
		{ID: 2, Title: "Morgen", ParentID: &one},
		{ID: 3, Title: "Abend", ParentID: &one},
		{ID: 4, Title: "Nacht", ParentID: &three},
		{ID: 5, Title: "Besondere Anlässe"},
	}
	require.NoError(t, db.Create(&categories).Error)

	prayers := []entities.Prayer{
		{ID: 10, Name: "Morgengebet", CategoryID: 2, LanguagesAvailable: entities.Languages{"DE", "EN"}},
		{ID: 11, Name: "Abendgebet", CategoryID: 3, LanguagesAvailable: entities.Languages{"DE"}},
		{ID: 12, Name: "Nachtgebet", CategoryID: 4, LanguagesAvailable: entities.Languages{"DE"}},
		{ID: 13, Name: "Dankgebet", CategoryID: 1, LanguagesAvailable: entities.Languages{"DE"}},
		{ID: 14, Name: "Travel prayer", CategoryID: 5, LanguagesAvailable: entities.Languages{"EN"}},
		{ID: 15, Name: "Reisegebet", CategoryID: 5, LanguagesAvailable: entities.Languages{"DE"}},
	}
	for i := range prayers {
		prayers[i].CreatedAt = FixtureBase.Add(time.Duration(i) * time.Hour)
		prayers[i].UpdatedAt = prayers[i].CreatedAt
	}
	require.NoError(t, db.Create(&prayers).Error)

	translations := []entities.PrayerTranslation{
		{ID: 100, PrayerID: 10, LanguageCode: "DE", MainBody: ptr("Im Licht des Morgens")},
		{ID: 101, PrayerID: 10, LanguageCode: "EN", MainBody: ptr("In the morning light")},
		{ID: 102, PrayerID: 11, LanguageCode: "DE", MainBody: ptr("Zum Abend")},
		{ID: 103, PrayerID: 12, LanguageCode: "DE", MainBody: ptr("Stille der Nacht")},
		{ID: 104, PrayerID: 13, LanguageCode: "DE", Introduction: ptr("Dank"), MainBody: ptr("Wir danken")},
		{ID: 105, PrayerID: 14, LanguageCode: "EN", MainBody: ptr("Light for the journey")},
		{ID: 106, PrayerID: 15, LanguageCode: "DE", Notes: ptr("Text folgt")},
	}
	require.NoError(t, db.Create(&translations).Error)

	require.NoError(t, db.Create(&[]entities.Language{{ID: 1, LanguageCode: "DE"}, {ID: 2, LanguageCode: "EN"}}).Error)
}

func ptr(s string) *string {
	return &s
}
