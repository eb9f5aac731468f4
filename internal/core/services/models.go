package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/quanswer/internal/core/domain"
	"github.com/custodia-labs/quanswer/internal/core/ports/driven"
	"github.com/custodia-labs/quanswer/internal/core/ports/driving"
	"github.com/custodia-labs/quanswer/internal/logger"
)

// Ensure ModelRegistry implements the interface.
var _ driving.ModelService = (*ModelRegistry)(nil)

// DefaultModels maps language codes to their default question-answering model.
var DefaultModels = map[string]string{
	"en": "ahotrod/albert_xxlargev1_squad2_512",
	"nl": "raalst/RobBERT-v2-nl-ext-qa",
}

// ModelRegistry loads models on first use and keeps one instance per name.
type ModelRegistry struct {
	loader   driven.ModelLoader
	defaults map[string]string

	mu     sync.Mutex
	models map[string]driven.QAModel
}

// NewModelRegistry creates a registry. overrides replaces or extends DefaultModels.
func NewModelRegistry(loader driven.ModelLoader, overrides map[string]string) *ModelRegistry {
	defaults := make(map[string]string, len(DefaultModels)+len(overrides))
	for lang, name := range DefaultModels {
		defaults[lang] = name
	}
	for lang, name := range overrides {
		if name != "" {
			defaults[lang] = name
		}
	}
	return &ModelRegistry{
		loader:   loader,
		defaults: defaults,
		models:   make(map[string]driven.QAModel),
	}
}

// Resolve maps a language code to its default model name.
func (r *ModelRegistry) Resolve(langOrName string) string {
	if name, ok := r.defaults[langOrName]; ok {
		return name
	}
	return langOrName
}

// Get returns the loaded model for a language code or name, loading it once.
func (r *ModelRegistry) Get(ctx context.Context, langOrName string) (driven.QAModel, error) {
	if langOrName == "" {
		return nil, fmt.Errorf("%w: empty model name", domain.ErrInvalidInput)
	}
	name := r.Resolve(langOrName)

	r.mu.Lock()
	defer r.mu.Unlock()

	if model, ok := r.models[name]; ok {
		logger.Debug("Reusing loaded model %s", name)
		return model, nil
	}
	if r.loader == nil {
		return nil, fmt.Errorf("%w: no model loader configured", domain.ErrModelUnavailable)
	}

	logger.Info("Loading model %s", name)
	model, err := r.loader.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", name, err)
	}
	r.models[name] = model
	return model, nil
}

// List returns the language defaults plus any other loaded model.
func (r *ModelRegistry) List(_ context.Context) ([]domain.ModelInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool)
	var infos []domain.ModelInfo
	for lang, name := range r.defaults {
		_, loaded := r.models[name]
		infos = append(infos, domain.ModelInfo{
			Lang:   lang,
			Name:   name,
			Local:  r.loader != nil && r.loader.IsLocal(name),
			Loaded: loaded,
		})
		seen[name] = true
	}
	for name := range r.models {
		if seen[name] {
			continue
		}
		infos = append(infos, domain.ModelInfo{
			Name:   name,
			Local:  true,
			Loaded: true,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Lang != infos[j].Lang {
			return infos[i].Lang < infos[j].Lang
		}
		return infos[i].Name < infos[j].Name
	})
	return infos, nil
}

// Close releases every loaded model and the loader.
func (r *ModelRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for name, model := range r.models {
		if err := model.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close model %s: %w", name, err)
		}
		delete(r.models, name)
	}
	if r.loader != nil {
		if err := r.loader.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close loader: %w", err)
		}
	}
	return firstErr
}
