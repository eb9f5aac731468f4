// Package hub fetches question-answering models from the HuggingFace hub.
package hub

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knights-analytics/hugot"

	"github.com/custodia-labs/quanswer/internal/core/domain"
	"github.com/custodia-labs/quanswer/internal/logger"
)

// OnnxFile is the model file requested from the hub.
const OnnxFile = "onnx/model.onnx"

// TokenizerFile must exist in every usable model directory.
const TokenizerFile = "tokenizer.json"

// DownloadFunc matches hugot.DownloadModel.
type DownloadFunc func(name, dir string, opts hugot.DownloadOptions) (string, error)

// Downloader resolves model names to local directories, downloading on first use.
type Downloader struct {
	dir      string
	download DownloadFunc
}

// NewDownloader creates a downloader caching models under dir.
// If dir is empty, defaults to ~/.quanswer/models.
func NewDownloader(dir string) (*Downloader, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".quanswer", "models")
	}
	return &Downloader{dir: dir, download: hugot.DownloadModel}, nil
}

// Dir returns the model cache directory.
func (d *Downloader) Dir() string {
	return d.dir
}

// Path returns where a hub model is stored locally.
// The layout matches hugot: "org/name" becomes "org_name".
func (d *Downloader) Path(name string) string {
	return filepath.Join(d.dir, strings.ReplaceAll(name, "/", "_"))
}

// IsLocal reports whether name is a usable local directory or an already downloaded model.
func (d *Downloader) IsLocal(name string) bool {
	if isModelDir(name) {
		return true
	}
	return isModelDir(d.Path(name))
}

// Ensure returns a local directory holding the model, downloading it if needed.
func (d *Downloader) Ensure(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty model name", domain.ErrInvalidInput)
	}
	if isModelDir(name) {
		logger.Debug("Using local model directory %s", name)
		return name, nil
	}
	if local := d.Path(name); isModelDir(local) {
		logger.Debug("Using cached model %s", local)
		return local, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create model directory: %w", err)
	}

	logger.Info("Downloading %s into %s", name, d.dir)
	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = OnnxFile
	path, err := d.download(name, d.dir, opts)
	if err != nil {
		return "", fmt.Errorf("%w: download %s: %v", domain.ErrModelUnavailable, name, err)
	}
	if !isModelDir(path) {
		return "", fmt.Errorf("%w: %s has no %s", domain.ErrModelUnavailable, path, TokenizerFile)
	}
	return path, nil
}

func isModelDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(path, TokenizerFile))
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// errDownloadDisabled is returned by Offline downloaders.
var errDownloadDisabled = errors.New("downloads disabled")

// Offline returns a downloader that only resolves models already on disk.
func Offline(dir string) (*Downloader, error) {
	d, err := NewDownloader(dir)
	if err != nil {
		return nil, err
	}
	d.download = func(string, string, hugot.DownloadOptions) (string, error) {
		return "", errDownloadDisabled
	}
	return d, nil
}
