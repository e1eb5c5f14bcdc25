// Package categories provides read access to the mirrored category tree.
//
// # Interface Implementation
//
//	var _ query.CategoryStore = (*Repository)(nil)
//
// # Usage
//
//	repo := categories.NewRepository(db)
//	ids, err := repo.GetCategoryAndDescendantIDs(ctx, rootID)
package categories

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/prayerbook/internal/database"
	"github.com/mrlokans/prayerbook/internal/entities"
)

// Repository handles all category database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new categories repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetCategoryByID returns database.ErrCategoryNotFound when no category has the id.
func (r *Repository) GetCategoryByID(ctx context.Context, id int64) (*entities.Category, error) {
	var category entities.Category
	err := r.db.WithContext(ctx).First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetCategoryByTitle matches the title case-insensitively, ignoring surrounding
// whitespace. When several categories share a title the lowest id wins.
func (r *Repository) GetCategoryByTitle(ctx context.Context, title string) (*entities.Category, error) {
	var category entities.Category
	err := r.db.WithContext(ctx).
		Where("fold(title) = ?", strings.ToLower(strings.TrimSpace(title))).
		Order("id ASC").
		First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetChildCategories returns the direct children of a category ordered by title.
func (r *Repository) GetChildCategories(ctx context.Context, parentID int64) ([]entities.Category, error) {
	var children []entities.Category
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("title ASC, id ASC").
		Find(&children).Error
	return children, err
}

// GetRootCategories returns categories without a parent ordered by title.
func (r *Repository) GetRootCategories(ctx context.Context) ([]entities.Category, error) {
	var roots []entities.Category
	err := r.db.WithContext(ctx).
		Where("parent_id IS NULL").
		Order("title ASC, id ASC").
		Find(&roots).Error
	return roots, err
}

// GetCategoryAndDescendantIDs returns the id itself followed by every id in
// its subtree, each exactly once. UNION discards rows already produced, so
// the walk terminates even if the mirrored data contains a cycle.
func (r *Repository) GetCategoryAndDescendantIDs(ctx context.Context, id int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Raw(`
		WITH RECURSIVE subtree(id) AS (
			SELECT id FROM categories WHERE id = ?
			UNION
			SELECT c.id FROM categories c JOIN subtree s ON c.parent_id = s.id
		)
		SELECT id FROM subtree`, id).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, database.ErrCategoryNotFound
	}
	return ids, nil
}

// GetCategoryCount returns the number of mirrored categories.
func (r *Repository) GetCategoryCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Category{}).Count(&count).Error
	return count, err
}
