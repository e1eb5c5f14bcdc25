// Package prayers provides read access to mirrored prayers and translations.
//
// Listing queries return entities.PrayerWithTranslation rows: the prayer joined
// to its translation in the requested language.
//
// # Interface Implementation
//
//	var _ query.PrayerStore = (*Repository)(nil)
//
// # Usage
//
//	repo := prayers.NewRepository(db)
//	list, err := repo.SearchPrayers(ctx, "licht", "DE")
package prayers

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/prayerbook/internal/database"
	"github.com/mrlokans/prayerbook/internal/entities"
)

const prayerColumns = `p.id, p.name, p.arabic_title, p.category_id, p.created_at, p.updated_at,
	p.languages_available, t.language_code, t.introduction, t.main_body, t.notes, t.source`

const newestFirst = "p.created_at DESC, p.id DESC"

// Repository handles all prayer database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new prayers repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// withTranslation selects prayers with their translation in lang. Prayers
// without one are kept with nil text fields.
func (r *Repository) withTranslation(ctx context.Context, lang string) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("prayers AS p").
		Select(prayerColumns).
		Joins("LEFT JOIN prayer_translations AS t ON t.prayer_id = p.id AND t.language_code = ?", lang)
}

// inLanguage selects only prayers that have a translation in lang.
func (r *Repository) inLanguage(ctx context.Context, lang string) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("prayers AS p").
		Select(prayerColumns).
		Joins("JOIN prayer_translations AS t ON t.prayer_id = p.id AND t.language_code = ?", lang)
}

// GetPrayerCount returns the number of mirrored prayers.
func (r *Repository) GetPrayerCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Prayer{}).Count(&count).Error
	return count, err
}

// GetPrayerByID returns the prayer with its lang translation, or
// database.ErrPrayerNotFound.
func (r *Repository) GetPrayerByID(ctx context.Context, id int64, lang string) (*entities.PrayerWithTranslation, error) {
	var rows []entities.PrayerWithTranslation
	err := r.withTranslation(ctx, lang).Where("p.id = ?", id).Limit(1).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, database.ErrPrayerNotFound
	}
	return &rows[0], nil
}

// GetPrayersByIDs returns the prayers among ids that exist, newest first,
// with their lang translation where present.
func (r *Repository) GetPrayersByIDs(ctx context.Context, ids []int64, lang string) ([]entities.PrayerWithTranslation, error) {
	rows := []entities.PrayerWithTranslation{}
	if len(ids) == 0 {
		return rows, nil
	}
	err := r.withTranslation(ctx, lang).
		Where("p.id IN ?", ids).
		Order(newestFirst).
		Scan(&rows).Error
	return rows, err
}

// GetPrayersByCategoryIDs lists prayers in any of the categories that have a
// lang translation, newest first.
func (r *Repository) GetPrayersByCategoryIDs(ctx context.Context, categoryIDs []int64, lang string) ([]entities.PrayerWithTranslation, error) {
	rows := []entities.PrayerWithTranslation{}
	if len(categoryIDs) == 0 {
		return rows, nil
	}
	err := r.inLanguage(ctx, lang).
		Where("p.category_id IN ?", categoryIDs).
		Order(newestFirst).
		Scan(&rows).Error
	return rows, err
}

// GetPrayersByCategoryOneLevel lists prayers of the category and of its direct
// subcategories. Deeper descendants are not included.
func (r *Repository) GetPrayersByCategoryOneLevel(ctx context.Context, categoryID int64, lang string) ([]entities.PrayerWithTranslation, error) {
	rows := []entities.PrayerWithTranslation{}
	err := r.inLanguage(ctx, lang).
		Joins("JOIN categories AS c ON c.id = p.category_id").
		Where("p.category_id = ? OR c.parent_id = ?", categoryID, categoryID).
		Order(newestFirst).
		Scan(&rows).Error
	return rows, err
}

// SearchPrayers matches term case-insensitively as a substring of the prayer
// name or of the lang translation body. Case folding is Unicode-aware through
// the fold() function of the database driver. An empty result is not an error.
func (r *Repository) SearchPrayers(ctx context.Context, term, lang string) ([]entities.PrayerWithTranslation, error) {
	rows := []entities.PrayerWithTranslation{}
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(term))) + "%"
	err := r.inLanguage(ctx, lang).
		Where(`fold(p.name) LIKE ? ESCAPE '\' OR fold(t.main_body) LIKE ? ESCAPE '\'`, pattern, pattern).
		Order(newestFirst).
		Scan(&rows).Error
	return rows, err
}

// GetLatestPrayers pages through prayers with a lang translation, newest first.
func (r *Repository) GetLatestPrayers(ctx context.Context, lang string, limit, offset int) ([]entities.PrayerWithTranslation, error) {
	rows := []entities.PrayerWithTranslation{}
	query := r.inLanguage(ctx, lang).Order(newestFirst)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	err := query.Scan(&rows).Error
	return rows, err
}

// GetTranslation returns the lang translation of a prayer, or nil when there is none.
func (r *Repository) GetTranslation(ctx context.Context, prayerID int64, lang string) (*entities.PrayerTranslation, error) {
	var translation entities.PrayerTranslation
	err := r.db.WithContext(ctx).
		Where("prayer_id = ? AND language_code = ?", prayerID, lang).
		First(&translation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &translation, nil
}

// GetLanguages returns the supported language codes ordered by code.
func (r *Repository) GetLanguages(ctx context.Context) ([]entities.Language, error) {
	var languages []entities.Language
	err := r.db.WithContext(ctx).Order("language_code ASC").Find(&languages).Error
	return languages, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
