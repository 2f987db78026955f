// Package localization provides internationalization (i18n) for user-facing
// strings. Translations are JSON files embedded at build time, one per
// language code (e.g. "ar.json").
package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

//go:embed locales/*.json
var localeFS embed.FS

// Localizer manages the translations for the application.
type Localizer struct {
	translations map[string]map[string]string
	mu           sync.RWMutex
}

// NewLocalizer loads all embedded translation files.
func NewLocalizer() (*Localizer, error) {
	l := &Localizer{
		translations: make(map[string]map[string]string),
	}

	files, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded locales: %w", err)
	}

	for _, file := range files {
		lang := strings.TrimSuffix(file.Name(), ".json")

		data, err := localeFS.ReadFile("locales/" + file.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read localization file %s: %w", file.Name(), err)
		}

		var translations map[string]string
		if err := json.Unmarshal(data, &translations); err != nil {
			return nil, fmt.Errorf("failed to parse localization file %s: %w", file.Name(), err)
		}

		l.translations[lang] = translations
	}

	return l, nil
}

// GetString returns the localized string for a given key and language.
// Unknown languages fall back to Arabic; unknown keys fall back to the key
// itself.
func (l *Localizer) GetString(lang, key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if langTranslations, ok := l.translations[lang]; ok {
		if value, ok := langTranslations[key]; ok {
			return value
		}
	}

	if lang != "ar" {
		if arTranslations, ok := l.translations["ar"]; ok {
			if value, ok := arTranslations[key]; ok {
				return value
			}
		}
	}

	return key
}
