package driving

import "github.com/custodia-labs/quanswer/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set parses and stores a single dot-notation setting.
	Set(key, value string) error

	// Keys lists every settable key, including one per configured language.
	Keys() []string

	// Path returns the location of the settings file.
	Path() string

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
