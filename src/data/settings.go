package data

import (
	"sync"

	"gorm.io/gorm"
)

// Setting is one row of the settings table.
type Setting struct {
	ID    uint   `gorm:"primaryKey"`
	Name  string `gorm:"size:128;uniqueIndex"`
	Value string `gorm:"type:text"`
}

var (
	settingsCache map[string]string
	settingsMu    sync.RWMutex
)

// MigrateSettings creates the settings table when missing.
func MigrateSettings(db *gorm.DB) error {
	return db.AutoMigrate(&Setting{})
}

// LoadSettings loads all settings from the database into cache
func LoadSettings(db *gorm.DB) error {
	var settings []Setting
	if err := db.Find(&settings).Error; err != nil {
		return err
	}
	cacheSettings(settings)
	return nil
}

func cacheSettings(settings []Setting) {
	settingsMu.Lock()
	defer settingsMu.Unlock()

	settingsCache = make(map[string]string, len(settings))
	for _, s := range settings {
		settingsCache[s.Name] = s.Value
	}
}

// GetSetting retrieves a setting value from cache (call LoadSettings first)
func GetSetting(name string) string {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return settingsCache[name]
}

// LoadSettingsForTest replaces the cache without a database.
func LoadSettingsForTest(values map[string]string) {
	settings := make([]Setting, 0, len(values))
	for name, value := range values {
		settings = append(settings, Setting{Name: name, Value: value})
	}
	cacheSettings(settings)
}
