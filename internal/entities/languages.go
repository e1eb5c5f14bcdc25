package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Languages is the set of language codes a prayer is available in.
// It is persisted as a JSON array in a TEXT column.
type Languages []string

// Value encodes the list as JSON text.
func (l Languages) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("encode languages: %w", err)
	}
	return string(data), nil
}

// Scan decodes JSON text (or bytes) into the list. NULL and empty text decode to an empty list.
func (l *Languages) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = Languages{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("decode languages: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*l = Languages{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("decode languages: %w", err)
	}
	*l = out
	return nil
}

// Contains reports whether code is in the list.
func (l Languages) Contains(code string) bool {
	for _, c := range l {
		if c == code {
			return true
		}
	}
	return false
}
