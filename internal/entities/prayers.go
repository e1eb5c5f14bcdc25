package entities

import (
	"time"
)

type Category struct {
	ID       int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Title    string    `gorm:"index;not null" json:"title"`
	ParentID *int64    `gorm:"index" json:"parent_id"`
	Parent   *Category `gorm:"foreignKey:ParentID;constraint:OnDelete:SET NULL" json:"-"`
}

type Prayer struct {
	ID                 int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name               string    `gorm:"not null" json:"name"`
	ArabicTitle        *string   `json:"arabic_title,omitempty"`
	CategoryID         int64     `gorm:"index;not null" json:"category_id"`
	Category           Category  `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt          time.Time `gorm:"index;autoCreateTime:false" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
	LanguagesAvailable Languages `gorm:"type:text" json:"languages_available"`
}

type PrayerTranslation struct {
	ID           int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	PrayerID     int64     `gorm:"not null;uniqueIndex:idx_translation_prayer_language" json:"prayer_id"`
	Prayer       Prayer    `gorm:"foreignKey:PrayerID;constraint:OnDelete:CASCADE" json:"-"`
	LanguageCode string    `gorm:"size:10;not null;uniqueIndex:idx_translation_prayer_language" json:"language_code"`
	Introduction *string   `json:"introduction,omitempty"`
	MainBody     *string   `json:"main_body,omitempty"`
	Notes        *string   `json:"notes,omitempty"`
	Source       *string   `json:"source,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime:false" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
}

// HasContent reports whether the translation carries any readable text.
func (t *PrayerTranslation) HasContent() bool {
	if t == nil {
		return false
	}
	return nonEmpty(t.Introduction) || nonEmpty(t.MainBody)
}

type Language struct {
	ID           int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	LanguageCode string    `gorm:"size:10;not null" json:"language_code"`
	CreatedAt    time.Time `gorm:"autoCreateTime:false" json:"created_at"`
}

// PayPalLink caches the donation link shown in the app. There is only ever one row.
type PayPalLink struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Link      string    `gorm:"type:text" json:"link"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PayPalLinkID is the primary key of the single paypal row.
const PayPalLinkID int64 = 1

// PrayerWithTranslation is a prayer joined to its translation in one language.
// Translation fields are nil when no translation exists for that language.
type PrayerWithTranslation struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	ArabicTitle        *string   `json:"arabic_title,omitempty"`
	CategoryID         int64     `json:"category_id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	LanguagesAvailable Languages `json:"languages_available"`
	LanguageCode       *string   `json:"language_code,omitempty"`
	Introduction       *string   `json:"introduction,omitempty"`
	MainBody           *string   `json:"main_body,omitempty"`
	Notes              *string   `json:"notes,omitempty"`
	Source             *string   `json:"source,omitempty"`
}

// ApplyTranslation copies the text fields of t onto p. A nil t clears them.
func (p *PrayerWithTranslation) ApplyTranslation(t *PrayerTranslation) {
	if t == nil {
		p.LanguageCode = nil
		p.Introduction = nil
		p.MainBody = nil
		p.Notes = nil
		p.Source = nil
		return
	}
	code := t.LanguageCode
	p.LanguageCode = &code
	p.Introduction = t.Introduction
	p.MainBody = t.MainBody
	p.Notes = t.Notes
	p.Source = t.Source
}

func (Category) TableName() string {
	return "categories"
}

func (Prayer) TableName() string {
	return "prayers"
}

func (PrayerTranslation) TableName() string {
	return "prayer_translations"
}

func (Language) TableName() string {
	return "languages"
}

func (PayPalLink) TableName() string {
	return "paypal"
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}
