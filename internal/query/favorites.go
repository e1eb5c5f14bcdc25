package query

import (
	"context"
	"fmt"

	"github.com/mrlokans/prayerbook/internal/entities"
	"github.com/mrlokans/prayerbook/internal/logger"
	"github.com/mrlokans/prayerbook/internal/notices"
)

// GetFavoritePrayers lists favourites, most recently added first, each with
// its text in lang, else in the fallback language, else with nil text fields.
// A missing or unreadable translation never drops a favourite from the list.
func (s *Service) GetFavoritePrayers(ctx context.Context, lang string) ([]entities.FavoritePrayer, error) {
	lang = s.Language(lang)
	favorites, err := s.deps.Favorites.GetFavorites(ctx)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}

	ids := make([]int64, len(favorites))
	for i, f := range favorites {
		ids[i] = f.PrayerID
	}
	byID, err := s.prayersByID(ctx, ids, lang)
	if err != nil {
		return nil, err
	}

	out := make([]entities.FavoritePrayer, 0, len(favorites))
	for _, f := range favorites {
		prayer, ok := byID[f.PrayerID]
		if !ok {
			logger.Warn("favorite without prayer", "prayer_id", f.PrayerID)
			continue
		}
		resolved := s.withFallback(ctx, &prayer, lang)
		out = append(out, entities.FavoritePrayer{
			PrayerWithTranslation: prayer,
			FavoriteID:            f.ID,
			AddedAt:               f.AddedAt,
			ResolvedLanguage:      resolved,
		})
	}
	return out, nil
}

// AddFavorite marks the prayer as favourite. Adding twice is a no-op; the
// favorite_added notice is emitted only when a row was created.
func (s *Service) AddFavorite(ctx context.Context, prayerID int64) (bool, error) {
	added, err := s.deps.Favorites.AddFavorite(ctx, prayerID)
	if err != nil {
		return false, err
	}
	if added {
		s.deps.Notifier.Notify(notices.KindFavoriteAdded, "")
	}
	return added, nil
}

// RemoveFavorite unmarks the prayer. Removing a non-favourite is a no-op.
func (s *Service) RemoveFavorite(ctx context.Context, prayerID int64) (bool, error) {
	removed, err := s.deps.Favorites.RemoveFavorite(ctx, prayerID)
	if err != nil {
		return false, err
	}
	if removed {
		s.deps.Notifier.Notify(notices.KindFavoriteRemoved, "")
	}
	return removed, nil
}

// ToggleFavorite flips the favourite state and returns the new one.
func (s *Service) ToggleFavorite(ctx context.Context, prayerID int64) (bool, error) {
	isFavorite, err := s.deps.Favorites.IsFavorite(ctx, prayerID)
	if err != nil {
		return false, err
	}
	if isFavorite {
		_, err = s.RemoveFavorite(ctx, prayerID)
		return false, err
	}
	_, err = s.AddFavorite(ctx, prayerID)
	return err == nil, err
}

func (s *Service) IsFavorite(ctx context.Context, prayerID int64) (bool, error) {
	return s.deps.Favorites.IsFavorite(ctx, prayerID)
}

func (s *Service) GetFavoriteCount(ctx context.Context) (int64, error) {
	return s.deps.Favorites.GetFavoriteCount(ctx)
}

func (s *Service) prayersByID(ctx context.Context, ids []int64, lang string) (map[int64]entities.PrayerWithTranslation, error) {
	prayers, err := s.deps.Prayers.GetPrayersByIDs(ctx, ids, lang)
	if err != nil {
		return nil, fmt.Errorf("load prayers: %w", err)
	}
	byID := make(map[int64]entities.PrayerWithTranslation, len(prayers))
	for _, p := range prayers {
		byID[p.ID] = p
	}
	return byID, nil
}

// withFallback fills prayer's text from the fallback language when lang has
// none and returns the language the text came from. Lookup errors are logged
// and leave the text fields nil.
func (s *Service) withFallback(ctx context.Context, prayer *entities.PrayerWithTranslation, lang string) string {
	if hasText(prayer) {
		return lang
	}
	translation, code, err := s.resolveTranslation(ctx, prayer.ID, lang)
	if err != nil {
		logger.Warn("translation lookup failed", "prayer_id", prayer.ID, "err", err)
	}
	prayer.ApplyTranslation(translation)
	return code
}
