package models

import (
	"encoding/json"
	"errors"
	"strconv"
)

// SettingType governs how the raw stored text of a setting is coerced.
type SettingType string

const (
	// SettingTypeString stores the value as-is.
	SettingTypeString SettingType = "string"
	// SettingTypeBoolean stores "1" for true and "0" for false.
	SettingTypeBoolean SettingType = "boolean"
	// SettingTypeInteger stores a base-10 integer as decimal text.
	SettingTypeInteger SettingType = "integer"
	// SettingTypeJSON stores a JSON document as serialized text.
	SettingTypeJSON SettingType = "json"
)

// SettingGroup is the category a setting belongs to.
type SettingGroup string

const (
	// SettingGroupGeneral holds general application settings.
	SettingGroupGeneral SettingGroup = "general"
	// SettingGroupSecurity holds password policy and login security settings.
	SettingGroupSecurity SettingGroup = "security"
	// SettingGroupEmail holds SMTP and sender settings.
	SettingGroupEmail SettingGroup = "email"
	// SettingGroupNotifications holds notification toggles.
	SettingGroupNotifications SettingGroup = "notifications"
	// SettingGroupAdvanced holds cache, backup and maintenance settings.
	SettingGroupAdvanced SettingGroup = "advanced"
)

// SettingGroups lists all known groups in display order.
var SettingGroups = []SettingGroup{
	SettingGroupGeneral,
	SettingGroupSecurity,
	SettingGroupEmail,
	SettingGroupNotifications,
	SettingGroupAdvanced,
}

var (
	// ErrInvalidTypedValue is returned when a value cannot be serialized under the setting's declared type.
	ErrInvalidTypedValue = errors.New("value does not match the setting type")
)

// Setting represents a typed, named, grouped configuration value stored in the database.
// The raw value is stored as text; TypedValue and SetTypedValue convert between
// the stored text and the declared type.
type Setting struct {
	ID uint64 `gorm:"primaryKey" json:"-"`
	// Key is the globally unique identifier of the setting.
	Key string `gorm:"uniqueIndex;size:255;not null" json:"key"`
	// Value is the raw stored text.
	Value string `json:"-"`
	// Type governs coercion of Value.
	Type SettingType `gorm:"type:varchar(20);not null;default:'string'" json:"type"`
	// Group is the category of the setting. "group" is a reserved word in SQL.
	Group SettingGroup `gorm:"column:setting_group;type:varchar(20);not null;default:'general'" json:"group"`
	// Description is a human-readable explanation of the setting.
	Description string `gorm:"size:500" json:"description"`
	// IsPublic marks settings safe to expose to unauthenticated callers.
	IsPublic bool `json:"is_public"`
}

// TypedValue coerces the raw stored text to the declared type.
// boolean -> value == "1"; integer -> base-10 int64; json -> unmarshalled
// document; string -> passthrough. Unparseable integer or json values
// fall back to zero values rather than failing reads.
func (s *Setting) TypedValue() any {
	switch s.Type {
	case SettingTypeBoolean:
		return s.Value == "1"
	case SettingTypeInteger:
		n, err := strconv.ParseInt(s.Value, 10, 64)
		if err != nil {
			return int64(0)
		}

		return n
	case SettingTypeJSON:
		var v any
		if err := json.Unmarshal([]byte(s.Value), &v); err != nil {
			return nil
		}

		return v
	default:
		return s.Value
	}
}

// SetTypedValue serializes v to the canonical text form for the setting's
// type and stores it in Value. boolean -> "1"/"0", integer -> decimal string,
// json -> serialized text, string -> passthrough.
func (s *Setting) SetTypedValue(v any) error {
	switch s.Type {
	case SettingTypeBoolean:
		b, ok := coerceBool(v)
		if !ok {
			return ErrInvalidTypedValue
		}

		if b {
			s.Value = "1"
		} else {
			s.Value = "0"
		}
	case SettingTypeInteger:
		n, ok := coerceInt(v)
		if !ok {
			return ErrInvalidTypedValue
		}

		s.Value = strconv.FormatInt(n, 10)
	case SettingTypeJSON:
		out, err := json.Marshal(v)
		if err != nil {
			return ErrInvalidTypedValue
		}

		s.Value = string(out)
	default:
		str, ok := v.(string)
		if !ok {
			return ErrInvalidTypedValue
		}

		s.Value = str
	}

	return nil
}

// coerceBool accepts native bools plus the common textual and numeric
// encodings arriving from JSON request bodies.
func coerceBool(v any) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		switch val {
		case "1", "true":
			return true, true
		case "0", "false", "":
			return false, true
		}

		return false, false
	case float64: // JSON numbers decode as float64
		return val != 0, true
	case int:
		return val != 0, true
	case int64:
		return val != 0, true
	default:
		return false, false
	}
}

// coerceInt accepts native integers, JSON numbers and decimal strings.
func coerceInt(v any) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int64:
		return val, true
	case float64:
		return int64(val), true
	case string:
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, false
		}

		return n, true
	default:
		return 0, false
	}
}
