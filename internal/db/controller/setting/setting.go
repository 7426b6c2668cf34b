// Package setting implements the typed application-settings store.
package setting

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/GoUserHub/GoUserHub/internal/db/models"
)

const (
	keyQueryPattern   = "key = ?"
	groupQueryPattern = "setting_group = ?"
)

// Get retrieves a setting row by its key.
func Get(db *gorm.DB, key string) (*models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if key == "" {
		return nil, ErrSettingKeyEmpty
	}

	var s models.Setting
	result := db.Where(keyQueryPattern, key).First(&s)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}
		return nil, result.Error
	}

	return &s, nil
}

// Value retrieves a setting and coerces it to its declared type.
func Value(db *gorm.DB, key string) (any, error) {
	s, err := Get(db, key)
	if err != nil {
		return nil, err
	}

	return s.TypedValue(), nil
}

// ValueOr retrieves the typed value of a setting, returning def when the
// key is absent. Storage errors also fall back to def so consumers of
// soft configuration never fail hard on reads.
func ValueOr(db *gorm.DB, key string, def any) any {
	v, err := Value(db, key)
	if err != nil {
		return def
	}

	return v
}

// BoolValue retrieves a boolean setting with a default.
func BoolValue(db *gorm.DB, key string, def bool) bool {
	if v, ok := ValueOr(db, key, def).(bool); ok {
		return v
	}

	return def
}

// IntValue retrieves an integer setting with a default.
func IntValue(db *gorm.DB, key string, def int64) int64 {
	if v, ok := ValueOr(db, key, def).(int64); ok {
		return v
	}

	return def
}

// StringValue retrieves a string setting with a default.
func StringValue(db *gorm.DB, key, def string) string {
	if v, ok := ValueOr(db, key, def).(string); ok {
		return v
	}

	return def
}

// ByGroup retrieves all settings of one group, ordered by key.
func ByGroup(db *gorm.DB, group models.SettingGroup) ([]models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	known := false
	for _, g := range models.SettingGroups {
		if g == group {
			known = true
			break
		}
	}

	if !known {
		return nil, ErrUnknownGroup
	}

	var settings []models.Setting
	result := db.Where(groupQueryPattern, group).Order("key").Find(&settings)
	if result.Error != nil {
		return nil, result.Error
	}

	return settings, nil
}

// All retrieves every setting, ordered by group then key.
func All(db *gorm.DB) ([]models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var settings []models.Setting
	result := db.Order("setting_group, key").Find(&settings)
	if result.Error != nil {
		return nil, result.Error
	}

	return settings, nil
}

// Public returns the typed values of all public settings keyed by setting key.
// Safe to expose to unauthenticated callers.
func Public(db *gorm.DB) (map[string]any, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var settings []models.Setting
	result := db.Where("is_public = ?", true).Find(&settings)
	if result.Error != nil {
		return nil, result.Error
	}

	out := make(map[string]any, len(settings))
	for i := range settings {
		out[settings[i].Key] = settings[i].TypedValue()
	}

	return out, nil
}

// Entry is one key/value patch applied by SetMany. Type and Group are
// optional; when empty the stored type and group are kept.
type Entry struct {
	Key   string              `json:"key" validate:"required"`
	Value any                 `json:"value"`
	Type  models.SettingType  `json:"type,omitempty"`
	Group models.SettingGroup `json:"group,omitempty"`
}

// EntryError is a per-entry failure collected by SetMany.
type EntryError struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

// SetMany applies a batch of key/value patches. Entries referencing unknown
// keys or carrying values that do not match the setting type are collected
// as per-entry errors; the remaining entries are still applied. The whole
// batch runs in one transaction so concurrent readers observe either the
// fully-old or fully-new set of affected rows. A storage error aborts the
// batch and is returned as the third value.
func SetMany(db *gorm.DB, entries []Entry) ([]models.Setting, []EntryError, error) {
	if db == nil {
		return nil, nil, ErrDBNil
	}

	var (
		updated   []models.Setting
		entryErrs []EntryError
	)

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, entry := range entries {
			var s models.Setting

			result := tx.Where(keyQueryPattern, entry.Key).First(&s)
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				entryErrs = append(entryErrs, EntryError{
					Key:     entry.Key,
					Message: fmt.Sprintf("Setting '%s' not found", entry.Key),
				})

				continue
			}

			if result.Error != nil {
				return result.Error
			}

			if entry.Type != "" {
				s.Type = entry.Type
			}

			if entry.Group != "" {
				s.Group = entry.Group
			}

			if errSet := s.SetTypedValue(entry.Value); errSet != nil {
				entryErrs = append(entryErrs, EntryError{
					Key:     entry.Key,
					Message: fmt.Sprintf("Failed to update setting '%s': %v", entry.Key, errSet),
				})

				continue
			}

			if errSave := tx.Save(&s).Error; errSave != nil {
				return errSave
			}

			updated = append(updated, s)
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return updated, entryErrs, nil
}

// ResetToDefaults atomically replaces the entire settings table with the
// built-in default catalog. On failure the previous contents are kept.
func ResetToDefaults(db *gorm.DB) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Setting{}).Error; err != nil {
			return err
		}

		defaults := Defaults()
		for i := range defaults {
			if err := tx.Create(&defaults[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}
