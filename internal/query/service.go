// Package query is the read API over the local mirror: category tree lookups,
// prayer listings and search, favourites with language fallback and user
// categories.
//
// Every method takes a language code; an empty code means the configured
// default. Notices are a side effect and never part of the return value.
//
// # Usage
//
//	svc := query.NewService(deps, query.Options{DefaultLanguage: "DE", FallbackLanguage: "EN"})
//	prayers, err := svc.SearchPrayers(ctx, "licht", "")
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mrlokans/prayerbook/internal/database"
	"github.com/mrlokans/prayerbook/internal/entities"
	"github.com/mrlokans/prayerbook/internal/logger"
	"github.com/mrlokans/prayerbook/internal/notices"
)

const (
	defaultLanguage  = "DE"
	fallbackLanguage = "EN"
	defaultPageSize  = 20
)

var (
	ErrEmptySearchTerm = errors.New("search term must not be empty")
	ErrInvalidPage     = errors.New("page must not be negative")
)

// Deps are the stores the service reads from. PayPalCache is consulted before
// PayPalTable; either may be nil.
type Deps struct {
	Categories     CategoryStore
	Prayers        PrayerStore
	Favorites      FavoriteStore
	UserCategories UserCategoryStore
	PayPalCache    PayPalSource
	PayPalTable    PayPalSource
	Notifier       notices.Notifier
}

type Options struct {
	DefaultLanguage  string
	FallbackLanguage string
	PageSize         int
}

type Service struct {
	deps Deps
	opts Options
}

func NewService(deps Deps, opts Options) *Service {
	if deps.Notifier == nil {
		deps.Notifier = notices.Discard
	}
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = defaultLanguage
	}
	if opts.FallbackLanguage == "" {
		opts.FallbackLanguage = fallbackLanguage
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	opts.DefaultLanguage = strings.ToUpper(opts.DefaultLanguage)
	opts.FallbackLanguage = strings.ToUpper(opts.FallbackLanguage)
	return &Service{deps: deps, opts: opts}
}

// Language normalizes a requested language code, substituting the default for "".
func (s *Service) Language(lang string) string {
	lang = strings.ToUpper(strings.TrimSpace(lang))
	if lang == "" {
		return s.opts.DefaultLanguage
	}
	return lang
}

func (s *Service) PageSize() int {
	return s.opts.PageSize
}

func (s *Service) GetCategoryByID(ctx context.Context, id int64) (*entities.Category, error) {
	return s.deps.Categories.GetCategoryByID(ctx, id)
}

func (s *Service) GetCategoryByTitle(ctx context.Context, title string) (*entities.Category, error) {
	return s.deps.Categories.GetCategoryByTitle(ctx, title)
}

func (s *Service) GetChildCategories(ctx context.Context, parentID int64) ([]entities.Category, error) {
	return s.deps.Categories.GetChildCategories(ctx, parentID)
}

func (s *Service) GetRootCategories(ctx context.Context) ([]entities.Category, error) {
	return s.deps.Categories.GetRootCategories(ctx)
}

// GetCategoryAndDescendantIDs returns the category id followed by every
// descendant id, each once.
func (s *Service) GetCategoryAndDescendantIDs(ctx context.Context, id int64) ([]int64, error) {
	return s.deps.Categories.GetCategoryAndDescendantIDs(ctx, id)
}

// GetPrayersByCategoryTitle lists prayers of the titled category and of its
// direct subcategories, newest first. An unknown title yields an empty list.
func (s *Service) GetPrayersByCategoryTitle(ctx context.Context, title, lang string) ([]entities.PrayerWithTranslation, error) {
	category, err := s.deps.Categories.GetCategoryByTitle(ctx, title)
	if errors.Is(err, database.ErrCategoryNotFound) {
		logger.Debug("category title not found", "title", title)
		return []entities.PrayerWithTranslation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve category %q: %w", title, err)
	}
	return s.deps.Prayers.GetPrayersByCategoryOneLevel(ctx, category.ID, s.Language(lang))
}

// GetPrayersInCategoryTree lists prayers anywhere below the category, itself included.
func (s *Service) GetPrayersInCategoryTree(ctx context.Context, categoryID int64, lang string) ([]entities.PrayerWithTranslation, error) {
	ids, err := s.deps.Categories.GetCategoryAndDescendantIDs(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	return s.deps.Prayers.GetPrayersByCategoryIDs(ctx, ids, s.Language(lang))
}

// GetPrayersInCategory lists the category's own prayers only.
func (s *Service) GetPrayersInCategory(ctx context.Context, categoryID int64, lang string) ([]entities.PrayerWithTranslation, error) {
	if _, err := s.deps.Categories.GetCategoryByID(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.deps.Prayers.GetPrayersByCategoryIDs(ctx, []int64{categoryID}, s.Language(lang))
}

// SearchPrayers matches term in prayer names and bodies. When nothing matches
// it returns an empty list and emits one search_no_results notice.
func (s *Service) SearchPrayers(ctx context.Context, term, lang string) ([]entities.PrayerWithTranslation, error) {
	if strings.TrimSpace(term) == "" {
		return nil, ErrEmptySearchTerm
	}
	results, err := s.deps.Prayers.SearchPrayers(ctx, term, s.Language(lang))
	if err != nil {
		return nil, fmt.Errorf("search prayers: %w", err)
	}
	if len(results) == 0 {
		s.deps.Notifier.Notify(notices.KindSearchNoResults, "")
	}
	return results, nil
}

// GetLatestPrayers returns one page of the newest prayers. Pages start at 0.
func (s *Service) GetLatestPrayers(ctx context.Context, lang string, page int) ([]entities.PrayerWithTranslation, error) {
	if page < 0 {
		return nil, ErrInvalidPage
	}
	return s.deps.Prayers.GetLatestPrayers(ctx, s.Language(lang), s.opts.PageSize, page*s.opts.PageSize)
}

// GetLatestPrayersRange is GetLatestPrayers with an explicit limit and offset.
func (s *Service) GetLatestPrayersRange(ctx context.Context, lang string, limit, offset int) ([]entities.PrayerWithTranslation, error) {
	if limit <= 0 {
		limit = s.opts.PageSize
	}
	if offset < 0 {
		return nil, ErrInvalidPage
	}
	return s.deps.Prayers.GetLatestPrayers(ctx, s.Language(lang), limit, offset)
}

// GetPrayer returns a prayer with its text in lang, or in the fallback
// language when lang has none. Text fields stay nil when neither has content.
func (s *Service) GetPrayer(ctx context.Context, id int64, lang string) (*entities.PrayerWithTranslation, error) {
	lang = s.Language(lang)
	prayer, err := s.deps.Prayers.GetPrayerByID(ctx, id, lang)
	if err != nil {
		return nil, err
	}
	if hasText(prayer) {
		return prayer, nil
	}
	translation, _, err := s.resolveTranslation(ctx, id, lang)
	if err != nil {
		return nil, err
	}
	prayer.ApplyTranslation(translation)
	return prayer, nil
}

func (s *Service) GetLanguages(ctx context.Context) ([]entities.Language, error) {
	return s.deps.Prayers.GetLanguages(ctx)
}

func (s *Service) GetPrayerCount(ctx context.Context) (int64, error) {
	return s.deps.Prayers.GetPrayerCount(ctx)
}

// GetPayPalLink reads the cached link, falling back to the mirrored table.
func (s *Service) GetPayPalLink(ctx context.Context) (string, error) {
	if s.deps.PayPalCache != nil {
		link, err := s.deps.PayPalCache.GetPayPalLink(ctx)
		if err != nil {
			logger.Warn("failed to read cached paypal link", "err", err)
		} else if link != "" {
			return link, nil
		}
	}
	if s.deps.PayPalTable == nil {
		return "", nil
	}
	return s.deps.PayPalTable.GetPayPalLink(ctx)
}

// resolveTranslation picks the first of lang and the fallback language whose
// translation has an introduction or body. It returns nil when neither does.
func (s *Service) resolveTranslation(ctx context.Context, prayerID int64, lang string) (*entities.PrayerTranslation, string, error) {
	candidates := []string{lang}
	if s.opts.FallbackLanguage != lang {
		candidates = append(candidates, s.opts.FallbackLanguage)
	}
	for _, code := range candidates {
		translation, err := s.deps.Prayers.GetTranslation(ctx, prayerID, code)
		if err != nil {
			return nil, "", fmt.Errorf("translation %s of prayer %d: %w", code, prayerID, err)
		}
		if translation.HasContent() {
			return translation, code, nil
		}
	}
	return nil, "", nil
}

func hasText(p *entities.PrayerWithTranslation) bool {
	return (p.Introduction != nil && *p.Introduction != "") || (p.MainBody != nil && *p.MainBody != "")
}
