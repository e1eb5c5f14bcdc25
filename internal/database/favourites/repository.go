// Package favourites provides database operations for the user's favourite prayers.
//
// Favourites are local-only rows; sync never writes them, but they cascade
// away when their prayer is removed from the mirror.
//
// # Interface Implementation
//
//	var _ query.FavoriteStore = (*Repository)(nil)
//
// # Usage
//
//	repo := favourites.NewRepository(db)
//	added, err := repo.AddFavorite(ctx, prayerID)
package favourites

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/prayerbook/internal/database"
	"github.com/mrlokans/prayerbook/internal/entities"
)

// Repository handles all favourites database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new favourites repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AddFavorite marks a prayer as favourite. Adding an existing favourite is a
// no-op and reports added=false.
func (r *Repository) AddFavorite(ctx context.Context, prayerID int64) (bool, error) {
	if err := r.requirePrayer(ctx, prayerID); err != nil {
		return false, err
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "prayer_id"}}, DoNothing: true}).
		Create(&entities.Favorite{PrayerID: prayerID, AddedAt: time.Now()})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RemoveFavorite unmarks a prayer. Removing a missing favourite is a no-op and
// reports removed=false.
func (r *Repository) RemoveFavorite(ctx context.Context, prayerID int64) (bool, error) {
	result := r.db.WithContext(ctx).Where("prayer_id = ?", prayerID).Delete(&entities.Favorite{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// IsFavorite reports whether the prayer is a favourite.
func (r *Repository) IsFavorite(ctx context.Context, prayerID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Favorite{}).Where("prayer_id = ?", prayerID).Count(&count).Error
	return count > 0, err
}

// GetFavorites returns all favourites, most recently added first.
func (r *Repository) GetFavorites(ctx context.Context) ([]entities.Favorite, error) {
	var favorites []entities.Favorite
	err := r.db.WithContext(ctx).Order("added_at DESC, id DESC").Find(&favorites).Error
	return favorites, err
}

// GetFavoriteIDs returns the favourite prayer ids, most recently added first.
func (r *Repository) GetFavoriteIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&entities.Favorite{}).
		Order("added_at DESC, id DESC").
		Pluck("prayer_id", &ids).Error
	return ids, err
}

// GetFavoriteCount returns the total number of favourites.
func (r *Repository) GetFavoriteCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Favorite{}).Count(&count).Error
	return count, err
}

func (r *Repository) requirePrayer(ctx context.Context, prayerID int64) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.Prayer{}).Where("id = ?", prayerID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return database.ErrPrayerNotFound
	}
	return nil
}
