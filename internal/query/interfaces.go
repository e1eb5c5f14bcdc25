package query

import (
	"context"

	"github.com/mrlokans/prayerbook/internal/entities"
)

// CategoryStore provides read access to the mirrored category tree.
type CategoryStore interface {
	GetCategoryByID(ctx context.Context, id int64) (*entities.Category, error)
	GetCategoryByTitle(ctx context.Context, title string) (*entities.Category, error)
	GetChildCategories(ctx context.Context, parentID int64) ([]entities.Category, error)
	GetRootCategories(ctx context.Context) ([]entities.Category, error)
	GetCategoryAndDescendantIDs(ctx context.Context, id int64) ([]int64, error)
}

// PrayerStore provides read access to mirrored prayers and translations.
type PrayerStore interface {
	GetPrayerCount(ctx context.Context) (int64, error)
	GetPrayerByID(ctx context.Context, id int64, lang string) (*entities.PrayerWithTranslation, error)
	GetPrayersByIDs(ctx context.Context, ids []int64, lang string) ([]entities.PrayerWithTranslation, error)
	GetPrayersByCategoryIDs(ctx context.Context, categoryIDs []int64, lang string) ([]entities.PrayerWithTranslation, error)
	GetPrayersByCategoryOneLevel(ctx context.Context, categoryID int64, lang string) ([]entities.PrayerWithTranslation, error)
	SearchPrayers(ctx context.Context, term, lang string) ([]entities.PrayerWithTranslation, error)
	GetLatestPrayers(ctx context.Context, lang string, limit, offset int) ([]entities.PrayerWithTranslation, error)
	GetTranslation(ctx context.Context, prayerID int64, lang string) (*entities.PrayerTranslation, error)
	GetLanguages(ctx context.Context) ([]entities.Language, error)
}

// FavoriteStore manages the local favourites table.
type FavoriteStore interface {
	AddFavorite(ctx context.Context, prayerID int64) (bool, error)
	RemoveFavorite(ctx context.Context, prayerID int64) (bool, error)
	IsFavorite(ctx context.Context, prayerID int64) (bool, error)
	GetFavorites(ctx context.Context) ([]entities.Favorite, error)
	GetFavoriteCount(ctx context.Context) (int64, error)
}

// UserCategoryStore manages user-defined groupings of prayers.
type UserCategoryStore interface {
	ListUserCategories(ctx context.Context) ([]entities.UserCategory, error)
	GetUserCategory(ctx context.Context, id int64) (*entities.UserCategory, error)
	CreateUserCategory(ctx context.Context, title, color string) (*entities.UserCategory, error)
	DeleteUserCategory(ctx context.Context, id int64) error
	AddPrayerToUserCategory(ctx context.Context, categoryID, prayerID int64) error
	RemovePrayerFromUserCategory(ctx context.Context, categoryID, prayerID int64) error
	GetUserCategoryPrayerIDs(ctx context.Context, categoryID int64) ([]int64, error)
}

// PayPalSource returns the donation link, "" when none is known.
type PayPalSource interface {
	GetPayPalLink(ctx context.Context) (string, error)
}
