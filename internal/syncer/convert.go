package syncer

import (
	"github.com/mrlokans/prayerbook/internal/entities"
	"github.com/mrlokans/prayerbook/internal/remote"
)

func toCategories(rows []remote.CategoryRow) []entities.Category {
	out := make([]entities.Category, len(rows))
	for i, r := range rows {
		out[i] = entities.Category{ID: r.ID, Title: r.Title, ParentID: r.ParentID}
	}
	return out
}

func categoryIDs(rows []entities.Category) []int64 {
	ids := make([]int64, len(rows))
	for i, c := range rows {
		ids[i] = c.ID
	}
	return ids
}

func toPrayers(rows []remote.PrayerRow) []entities.Prayer {
	out := make([]entities.Prayer, len(rows))
	for i, r := range rows {
		languages := entities.Languages(r.LanguagesAvailable)
		if languages == nil {
			languages = entities.Languages{}
		}
		out[i] = entities.Prayer{
			ID:                 r.ID,
			Name:               r.Name,
			ArabicTitle:        r.ArabicTitle,
			CategoryID:         r.CategoryID,
			CreatedAt:          r.CreatedAt,
			UpdatedAt:          r.UpdatedAt,
			LanguagesAvailable: languages,
		}
	}
	return out
}

func toTranslations(rows []remote.TranslationRow) []entities.PrayerTranslation {
	out := make([]entities.PrayerTranslation, len(rows))
	for i, r := range rows {
		out[i] = entities.PrayerTranslation{
			ID:           r.ID,
			PrayerID:     r.PrayerID,
			LanguageCode: r.LanguageCode,
			Introduction: r.Introduction,
			MainBody:     r.MainBody,
			Notes:        r.Notes,
			Source:       r.Source,
			CreatedAt:    r.CreatedAt,
			UpdatedAt:    r.UpdatedAt,
		}
	}
	return out
}

func toLanguages(rows []remote.LanguageRow) []entities.Language {
	out := make([]entities.Language, len(rows))
	for i, r := range rows {
		out[i] = entities.Language{ID: r.ID, LanguageCode: r.LanguageCode, CreatedAt: r.CreatedAt}
	}
	return out
}
