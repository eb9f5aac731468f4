// Package app wires adapters and services into the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/custodia-labs/quanswer/internal/adapters/driven/config/file"
	"github.com/custodia-labs/quanswer/internal/adapters/driven/model/hub"
	"github.com/custodia-labs/quanswer/internal/adapters/driven/model/onnx"
	"github.com/custodia-labs/quanswer/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/quanswer/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/quanswer/internal/adapters/driving/cli"
	"github.com/custodia-labs/quanswer/internal/core/domain"
	"github.com/custodia-labs/quanswer/internal/core/ports/driven"
	"github.com/custodia-labs/quanswer/internal/core/services"
	"github.com/custodia-labs/quanswer/internal/logger"
)

// memoryConfig keeps settings in process; nothing is read or written on disk.
const memoryConfig = ":memory:"

// offlineEnv disables model downloads, following the Hugging Face convention.
const offlineEnv = "HF_HUB_OFFLINE"

// New builds the services for one CLI invocation.
func New(_ context.Context, cfg cli.Config) (*cli.Services, error) {
	logger.Section("Startup")

	store, err := openConfig(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Debug("Config: %s", store.Path())

	if err := file.LoadEnv(envFiles(store.Path())...); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	file.ApplyEnv(store)

	settingsService := services.NewSettingsService(store)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", store.Path(), err)
	}

	fetcher, err := newFetcher(settings.Models.Dir)
	if err != nil {
		return nil, err
	}
	loader := onnx.NewLoader(fetcher, onnx.Config{
		RuntimeLibrary: settings.Models.RuntimeLibrary,
		MaxSeqLen:      settings.QA.MaxSeqLen,
		Layout:         settings.QA.Layout,
		Threads:        max(1, runtime.NumCPU()/max(1, settings.QA.Workers)),
	})
	models := services.NewModelRegistry(loader, settings.Models.Languages)

	res := openStorage(settings.Cache, cfg.NoCache)
	answerService := services.NewAnswerService(models, res.cache, res.runs)

	return &cli.Services{
		Answer:   answerService,
		Models:   models,
		Settings: settingsService,
		History:  answerService,
		Cache:    services.NewCacheService(res.maintainer()),
		Close: func() error {
			return errors.Join(models.Close(), res.close())
		},
	}, nil
}

func openConfig(path string) (driven.ConfigStore, error) {
	if path == memoryConfig {
		return memory.NewConfigStore(), nil
	}
	if path != "" {
		return file.NewConfigStoreAt(path)
	}
	return file.NewConfigStore("")
}

// envFiles lists the .env files to load: the working directory and the config directory.
func envFiles(configPath string) []string {
	if configPath == memoryConfig {
		return []string{".env"}
	}
	return []string{".env", filepath.Join(filepath.Dir(configPath), ".env")}
}

func newFetcher(dir string) (*hub.Downloader, error) {
	if os.Getenv(offlineEnv) == "1" {
		logger.Info("Model downloads disabled (%s=1)", offlineEnv)
		return hub.Offline(dir)
	}
	return hub.NewDownloader(dir)
}

// storage holds the result cache and run history for one invocation.
type storage struct {
	cache driven.ResultCache
	runs  driven.RunStore
	db    *sqlite.Store
}

// openStorage opens the SQLite store for run history and, unless disabled,
// the persistent result cache. A store that cannot be opened degrades to an
// in-memory cache without history.
func openStorage(settings domain.CacheSettings, noCache bool) *storage {
	s := &storage{}

	db, err := sqlite.NewStore(settings.Dir)
	if err != nil {
		logger.Warn("Result store unavailable, using memory cache: %v", err)
	} else {
		s.db = db
		s.runs = db.RunStore()
		logger.Debug("Result store: %s", db.Path())
	}

	if s.db != nil && settings.Enabled && !noCache {
		s.cache = s.db.ResultCache()
	} else {
		s.cache = memory.NewResultCache(memory.DefaultCacheEntries)
	}
	return s
}

// maintainer returns the persistent cache for inspection, or nil without a store.
// It is available even when --no-cache bypasses the cache for answering.
func (s *storage) maintainer() driven.CacheMaintainer {
	if s.db == nil {
		return nil
	}
	return s.db.CacheMaintainer()
}

func (s *storage) close() error {
	err := s.cache.Close()
	if s.db != nil {
		err = errors.Join(err, s.db.Close())
	}
	return err
}
