package entities

import (
	"strings"
	"time"
)

// Favorite is a local-only bookmark of a prayer. Sync never touches this table.
type Favorite struct {
	ID       int64     `gorm:"primaryKey" json:"id"`
	PrayerID int64     `gorm:"uniqueIndex;not null" json:"prayer_id"`
	Prayer   Prayer    `gorm:"foreignKey:PrayerID;constraint:OnDelete:CASCADE" json:"-"`
	AddedAt  time.Time `json:"added_at"`
}

// FavoritePrayer is a favourite resolved against the best available translation.
type FavoritePrayer struct {
	PrayerWithTranslation
	FavoriteID       int64     `json:"favorite_id"`
	AddedAt          time.Time `json:"added_at"`
	// ResolvedLanguage is the language the text fields came from, empty when none matched.
	ResolvedLanguage string    `json:"resolved_language"`
}

// UserCategory is a user-defined grouping of prayers, independent of the remote tree.
type UserCategory struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:100;not null" json:"title"`
	TitleKey  string    `gorm:"size:100;not null;uniqueIndex" json:"-"`
	Color     string    `gorm:"size:9;not null" json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// UserCategoryPrayer assigns a prayer to a user category.
type UserCategoryPrayer struct {
	UserCategoryID int64        `gorm:"primaryKey" json:"user_category_id"`
	UserCategory   UserCategory `gorm:"foreignKey:UserCategoryID;constraint:OnDelete:CASCADE" json:"-"`
	PrayerID       int64        `gorm:"primaryKey" json:"prayer_id"`
	Prayer         Prayer       `gorm:"foreignKey:PrayerID;constraint:OnDelete:CASCADE" json:"-"`
	AddedAt        time.Time    `json:"added_at"`
}

// NormalizeTitle is the comparison key for user category titles:
// surrounding whitespace is ignored and case does not matter.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

func (Favorite) TableName() string {
	return "favorites"
}

func (UserCategory) TableName() string {
	return "user_categories"
}

func (UserCategoryPrayer) TableName() string {
	return "user_category_prayers"
}
