package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/quanswer/internal/core/domain"
	"github.com/custodia-labs/quanswer/internal/core/ports/driven"
	"github.com/custodia-labs/quanswer/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyModelsDir      = "models.dir"
	keyRuntimeLibrary = "runtime.library"
	keyMaxSeqLen      = "qa.max_seq_len"
	keyMaxAnswerLen   = "qa.max_answer_len"
	keyWorkers        = "qa.workers"
	keyBatch          = "qa.batch"
	keyAlignment      = "qa.alignment"
	keyContextFirst   = "qa.context_first"
	keyPadLeft        = "qa.pad_left"
	keyPadToMax       = "qa.pad_to_max"
	keyCacheEnabled   = "cache.enabled"
	keyCacheDir       = "cache.dir"

	modelsPrefix = "models."
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Models: domain.ModelSettings{
			Dir:            s.configStore.GetString(keyModelsDir),
			RuntimeLibrary: s.configStore.GetString(keyRuntimeLibrary),
			Languages:      s.languages(),
		},
		QA: domain.QASettings{
			MaxSeqLen:    s.getInt(keyMaxSeqLen, defaults.QA.MaxSeqLen),
			MaxAnswerLen: s.getInt(keyMaxAnswerLen, defaults.QA.MaxAnswerLen),
			Workers:      s.getInt(keyWorkers, defaults.QA.Workers),
			Batch:        s.getInt(keyBatch, defaults.QA.Batch),
			Alignment:    s.getAlignment(defaults.QA.Alignment),
			Layout: domain.LayoutOverrides{
				ContextFirst: s.getOptionalBool(keyContextFirst),
				PadLeft:      s.getOptionalBool(keyPadLeft),
				PadToMax:     s.getOptionalBool(keyPadToMax),
			},
		},
		Cache: domain.CacheSettings{
			Enabled: s.getBool(keyCacheEnabled, defaults.Cache.Enabled),
			Dir:     s.configStore.GetString(keyCacheDir),
		},
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	values := map[string]any{
		keyModelsDir:      settings.Models.Dir,
		keyRuntimeLibrary: settings.Models.RuntimeLibrary,
		keyMaxSeqLen:      settings.QA.MaxSeqLen,
		keyMaxAnswerLen:   settings.QA.MaxAnswerLen,
		keyWorkers:        settings.QA.Workers,
		keyBatch:          settings.QA.Batch,
		keyAlignment:      settings.QA.Alignment.String(),
		keyCacheEnabled:   settings.Cache.Enabled,
		keyCacheDir:       settings.Cache.Dir,
	}
	for lang, name := range settings.Models.Languages {
		values[modelsPrefix+lang] = name
	}
	// Unset layout keys stay unset so the model's tokenizer files decide.
	layout := map[string]*bool{
		keyContextFirst: settings.QA.Layout.ContextFirst,
		keyPadLeft:      settings.QA.Layout.PadLeft,
		keyPadToMax:     settings.QA.Layout.PadToMax,
	}
	for key, v := range layout {
		if v != nil {
			values[key] = *v
		}
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := s.configStore.Set(key, values[key]); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return nil
}

// Set parses value according to the key's type and persists it.
func (s *SettingsService) Set(key, value string) error {
	var parsed any
	switch key {
	case keyMaxSeqLen, keyMaxAnswerLen, keyWorkers, keyBatch:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s expects an integer: %q", domain.ErrInvalidInput, key, value)
		}
		parsed = n
	case keyCacheEnabled, keyContextFirst, keyPadLeft, keyPadToMax:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s expects true or false: %q", domain.ErrInvalidInput, key, value)
		}
		parsed = b
	case keyAlignment:
		if !domain.AlignmentMode(value).IsValid() {
			return fmt.Errorf("%w: unknown alignment mode %q", domain.ErrInvalidInput, value)
		}
		parsed = value
	case keyModelsDir, keyRuntimeLibrary, keyCacheDir:
		parsed = value
	default:
		if !isLanguageKey(key) {
			return fmt.Errorf("%w: unknown setting %q", domain.ErrNotFound, key)
		}
		parsed = value
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys lists every settable key.
func (s *SettingsService) Keys() []string {
	keys := []string{
		keyModelsDir, keyRuntimeLibrary,
		keyMaxSeqLen, keyMaxAnswerLen, keyWorkers, keyBatch, keyAlignment,
		keyContextFirst, keyPadLeft, keyPadToMax,
		keyCacheEnabled, keyCacheDir,
	}
	langs := make([]string, 0, len(DefaultModels))
	for lang := range DefaultModels {
		langs = append(langs, lang)
	}
	for lang := range s.languages() {
		if _, ok := DefaultModels[lang]; !ok {
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	for _, lang := range langs {
		keys = append(keys, modelsPrefix+lang)
	}
	return keys
}

// Path returns the location of the settings file.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// languages collects models.<lang> overrides.
func (s *SettingsService) languages() map[string]string {
	langs := make(map[string]string)
	for _, key := range s.configStore.Keys(modelsPrefix) {
		if !isLanguageKey(key) {
			continue
		}
		if name := s.configStore.GetString(key); name != "" {
			langs[strings.TrimPrefix(key, modelsPrefix)] = name
		}
	}
	return langs
}

// isLanguageKey matches models.<lang> but not models.dir.
func isLanguageKey(key string) bool {
	lang, ok := strings.CutPrefix(key, modelsPrefix)
	return ok && lang != "" && key != keyModelsDir && !strings.Contains(lang, ".")
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

// getOptionalBool returns nil when key was never set.
func (s *SettingsService) getOptionalBool(key string) *bool {
	if _, ok := s.configStore.Get(key); !ok {
		return nil
	}
	v := s.configStore.GetBool(key)
	return &v
}

func (s *SettingsService) getAlignment(defaultVal domain.AlignmentMode) domain.AlignmentMode {
	v := s.configStore.GetString(keyAlignment)
	if v == "" {
		return defaultVal
	}
	return domain.AlignmentMode(v)
}
