// Package usercategories provides database operations for user-defined
// categories and the prayers assigned to them.
//
// Titles are unique ignoring case and surrounding whitespace. The check runs
// before the insert and is backed by a unique index on the normalized title,
// so concurrent creators still get DuplicateUserCategoryError.
//
// # Interface Implementation
//
//	var _ query.UserCategoryStore = (*Repository)(nil)
package usercategories

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/prayerbook/internal/database"
	"github.com/mrlokans/prayerbook/internal/entities"
)

// Repository handles all user category database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new user categories repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListUserCategories returns all user categories ordered by title.
func (r *Repository) ListUserCategories(ctx context.Context) ([]entities.UserCategory, error) {
	var categories []entities.UserCategory
	err := r.db.WithContext(ctx).Order("title_key ASC, id ASC").Find(&categories).Error
	return categories, err
}

// GetUserCategory returns database.ErrUserCategoryNotFound when the id is unknown.
func (r *Repository) GetUserCategory(ctx context.Context, id int64) (*entities.UserCategory, error) {
	var category entities.UserCategory
	err := r.db.WithContext(ctx).First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.ErrUserCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// CreateUserCategory stores a new category with the trimmed title.
func (r *Repository) CreateUserCategory(ctx context.Context, title, color string) (*entities.UserCategory, error) {
	title = strings.TrimSpace(title)
	key := entities.NormalizeTitle(title)

	var existing int64
	if err := r.db.WithContext(ctx).Model(&entities.UserCategory{}).Where("title_key = ?", key).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, &database.DuplicateUserCategoryError{Title: title}
	}

	category := &entities.UserCategory{
		Title:     title,
		TitleKey:  key,
		Color:     color,
		CreatedAt: time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, &database.DuplicateUserCategoryError{Title: title}
		}
		return nil, err
	}
	return category, nil
}

// DeleteUserCategory removes the category and its prayer assignments.
func (r *Repository) DeleteUserCategory(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&entities.UserCategory{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return database.ErrUserCategoryNotFound
	}
	return nil
}

// AddPrayerToUserCategory assigns a prayer. Assigning twice is a no-op.
func (r *Repository) AddPrayerToUserCategory(ctx context.Context, categoryID, prayerID int64) error {
	if _, err := r.GetUserCategory(ctx, categoryID); err != nil {
		return err
	}
	var prayers int64
	if err := r.db.WithContext(ctx).Model(&entities.Prayer{}).Where("id = ?", prayerID).Count(&prayers).Error; err != nil {
		return err
	}
	if prayers == 0 {
		return database.ErrPrayerNotFound
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entities.UserCategoryPrayer{
			UserCategoryID: categoryID,
			PrayerID:       prayerID,
			AddedAt:        time.Now(),
		}).Error
}

// RemovePrayerFromUserCategory unassigns a prayer. Removing a missing assignment is a no-op.
func (r *Repository) RemovePrayerFromUserCategory(ctx context.Context, categoryID, prayerID int64) error {
	return r.db.WithContext(ctx).
		Where("user_category_id = ? AND prayer_id = ?", categoryID, prayerID).
		Delete(&entities.UserCategoryPrayer{}).Error
}

// GetUserCategoryPrayerIDs returns the prayers assigned to a category, most recently added first.
func (r *Repository) GetUserCategoryPrayerIDs(ctx context.Context, categoryID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&entities.UserCategoryPrayer{}).
		Where("user_category_id = ?", categoryID).
		Order("added_at DESC, prayer_id DESC").
		Pluck("prayer_id", &ids).Error
	return ids, err
}
