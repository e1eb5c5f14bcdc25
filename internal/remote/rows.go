package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// CategoryRow is a row of the remote categories table.
type CategoryRow struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	ParentID *int64 `json:"parent_id"`
}

// PrayerRow is a row of the remote prayers table.
type PrayerRow struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	ArabicTitle        *string    `json:"arabic_title"`
	CategoryID         int64      `json:"category_id"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	LanguagesAvailable StringList `json:"languages_available"`
}

// TranslationRow is a row of the remote prayer_translations table.
type TranslationRow struct {
	ID           int64     `json:"id"`
	PrayerID     int64     `json:"prayer_id"`
	LanguageCode string    `json:"language_code"`
	Introduction *string   `json:"introduction"`
	MainBody     *string   `json:"main_body"`
	Notes        *string   `json:"notes"`
	Source       *string   `json:"source"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LanguageRow is a row of the remote languages table.
type LanguageRow struct {
	ID           int64     `json:"id"`
	LanguageCode string    `json:"language_code"`
	CreatedAt    time.Time `json:"created_at"`
}

// VersionRow is a row of the remote version table.
type VersionRow struct {
	Version Scalar `json:"version"`
}

// PayPalRow is a row of the remote paypal table.
type PayPalRow struct {
	Link string `json:"link"`
}

// StringList decodes either a JSON array of strings or a string holding one,
// since the column is text in some deployments and an array in others.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		if encoded == "" {
			*l = nil
			return nil
		}
		data = []byte(encoded)
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("languages_available: %w", err)
	}
	*l = out
	return nil
}

// Scalar decodes a JSON string or number into its string form.
type Scalar string

func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
	case len(data) > 0 && data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = Scalar(v)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("version: %w", err)
		}
		if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
			return fmt.Errorf("version: %w", err)
		}
		*s = Scalar(n.String())
	}
	return nil
}
