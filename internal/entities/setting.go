package entities

import (
	"time"
)

// Setting is one entry of the fast key/value store.
type Setting struct {
	Key       string    `gorm:"primaryKey;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	SettingKeyVersion    = "version"
	SettingKeyPayPalLink = "paypal_link"
	SettingKeyLastSyncAt = "last_sync_at"
)
