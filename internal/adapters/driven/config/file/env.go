package file

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/quanswer/internal/core/ports/driven"
	"github.com/custodia-labs/quanswer/internal/logger"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "QUANSWER_"

type envKind int

const (
	envString envKind = iota
	envInt
	envBool
)

type envKey struct {
	key  string
	kind envKind
}

// envKeys maps environment variables to config keys.
var envKeys = map[string]envKey{
	EnvPrefix + "MODELS_DIR":     {"models.dir", envString},
	EnvPrefix + "ORT_LIBRARY":    {"runtime.library", envString},
	EnvPrefix + "CACHE_DIR":      {"cache.dir", envString},
	EnvPrefix + "CACHE_ENABLED":  {"cache.enabled", envBool},
	EnvPrefix + "ALIGNMENT":      {"qa.alignment", envString},
	EnvPrefix + "WORKERS":        {"qa.workers", envInt},
	EnvPrefix + "BATCH":          {"qa.batch", envInt},
	EnvPrefix + "MAX_SEQ_LEN":    {"qa.max_seq_len", envInt},
	EnvPrefix + "MAX_ANSWER_LEN": {"qa.max_answer_len", envInt},
	EnvPrefix + "CONTEXT_FIRST":  {"qa.context_first", envBool},
	EnvPrefix + "PAD_LEFT":       {"qa.pad_left", envBool},
	EnvPrefix + "PAD_TO_MAX":     {"qa.pad_to_max", envBool},
}

// LoadEnv loads .env style files into the process environment.
// Missing files are skipped; variables already set are not overwritten.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		logger.Debug("Loaded environment from %s", f)
	}
	return nil
}

// ApplyEnv copies QUANSWER_* variables onto store as process-only overrides.
// QUANSWER_MODEL_<LANG> sets models.<lang>.
func ApplyEnv(store driven.ConfigStore) {
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) || value == "" {
			continue
		}

		if lang, isModel := strings.CutPrefix(name, EnvPrefix+"MODEL_"); isModel && lang != "" {
			store.Override("models."+strings.ToLower(lang), value)
			logger.Debug("Config override models.%s from %s", strings.ToLower(lang), name)
			continue
		}

		ek, known := envKeys[name]
		if !known {
			continue
		}
		parsed, err := ek.parse(value)
		if err != nil {
			logger.Warn("Ignoring %s: %v", name, err)
			continue
		}
		store.Override(ek.key, parsed)
		logger.Debug("Config override %s from %s", ek.key, name)
	}
}

// parse types a value the way TOML would.
func (k envKey) parse(v string) (any, error) {
	switch k.kind {
	case envInt:
		return strconv.ParseInt(v, 10, 64)
	case envBool:
		return strconv.ParseBool(v)
	default:
		return v, nil
	}
}
