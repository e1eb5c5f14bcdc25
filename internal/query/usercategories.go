package query

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mrlokans/prayerbook/internal/entities"
	"github.com/mrlokans/prayerbook/internal/notices"
)

const (
	DefaultUserCategoryColor = "#3F7D58"
	maxUserCategoryTitle     = 100
)

var (
	ErrEmptyTitle   = errors.New("title must not be empty")
	ErrTitleTooLong = errors.New("title is too long")
	ErrInvalidColor = errors.New("color must have the form #RRGGBB")
	hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

func (s *Service) ListUserCategories(ctx context.Context) ([]entities.UserCategory, error) {
	return s.deps.UserCategories.ListUserCategories(ctx)
}

// CreateUserCategory validates and stores a new user category. A title that
// matches an existing one after trimming and case folding fails with
// database.ErrDuplicateUserCategory.
func (s *Service) CreateUserCategory(ctx context.Context, title, color string) (*entities.UserCategory, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if utf8.RuneCountInString(title) > maxUserCategoryTitle {
		return nil, ErrTitleTooLong
	}
	color = strings.TrimSpace(color)
	if color == "" {
		color = DefaultUserCategoryColor
	}
	if !hexColorPattern.MatchString(color) {
		return nil, ErrInvalidColor
	}

	category, err := s.deps.UserCategories.CreateUserCategory(ctx, title, strings.ToUpper(color))
	if err != nil {
		return nil, err
	}
	s.deps.Notifier.Notify(notices.KindUserCategoryCreated, "")
	return category, nil
}

func (s *Service) DeleteUserCategory(ctx context.Context, id int64) error {
	return s.deps.UserCategories.DeleteUserCategory(ctx, id)
}

func (s *Service) AddPrayerToUserCategory(ctx context.Context, categoryID, prayerID int64) error {
	return s.deps.UserCategories.AddPrayerToUserCategory(ctx, categoryID, prayerID)
}

func (s *Service) RemovePrayerFromUserCategory(ctx context.Context, categoryID, prayerID int64) error {
	return s.deps.UserCategories.RemovePrayerFromUserCategory(ctx, categoryID, prayerID)
}

// GetUserCategoryPrayers lists the prayers assigned to a user category, most
// recently assigned first, with the same language fallback as favourites.
func (s *Service) GetUserCategoryPrayers(ctx context.Context, id int64, lang string) ([]entities.PrayerWithTranslation, error) {
	if _, err := s.deps.UserCategories.GetUserCategory(ctx, id); err != nil {
		return nil, err
	}
	lang = s.Language(lang)
	ids, err := s.deps.UserCategories.GetUserCategoryPrayerIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	byID, err := s.prayersByID(ctx, ids, lang)
	if err != nil {
		return nil, err
	}

	out := make([]entities.PrayerWithTranslation, 0, len(ids))
	for _, prayerID := range ids {
		prayer, ok := byID[prayerID]
		if !ok {
			continue
		}
		s.withFallback(ctx, &prayer, lang)
		out = append(out, prayer)
	}
	return out, nil
}
