package onnx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/custodia-labs/quanswer/internal/core/domain"
	"github.com/custodia-labs/quanswer/internal/core/ports/driven"
	"github.com/custodia-labs/quanswer/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.ModelLoader = (*Loader)(nil)

// Fetcher resolves a model name to a local directory.
type Fetcher interface {
	Ensure(ctx context.Context, name string) (string, error)
	IsLocal(name string) bool
}

// Config configures a Loader.
type Config struct {
	// RuntimeLibrary is the ONNX Runtime shared library. Empty uses the
	// library's platform default.
	RuntimeLibrary string

	// MaxSeqLen overrides the profile's maximum sequence length when positive.
	MaxSeqLen int

	// Layout overrides what the model's tokenizer files declare.
	Layout domain.LayoutOverrides

	// Threads bounds intra-op parallelism per session when positive.
	Threads int
}

// Loader loads ONNX question-answering models from directories produced by a Fetcher.
type Loader struct {
	fetcher Fetcher
	cfg     Config

	mu          sync.Mutex
	initialized bool
}

// NewLoader creates a loader. The runtime is initialized lazily on first Load.
func NewLoader(fetcher Fetcher, cfg Config) *Loader {
	return &Loader{fetcher: fetcher, cfg: cfg}
}

// IsLocal reports whether the model is available without a download.
func (l *Loader) IsLocal(name string) bool {
	return l.fetcher.IsLocal(name)
}

// Load fetches the model if needed and opens an inference session.
func (l *Loader) Load(ctx context.Context, name string) (driven.QAModel, error) {
	dir, err := l.fetcher.Ensure(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := l.initRuntime(); err != nil {
		return nil, err
	}

	tok, err := NewTokenizer(filepath.Join(dir, "tokenizer.json"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}
	profile, err := l.profile(dir, tok)
	if err != nil {
		return nil, err
	}

	modelPath, err := findModelFile(dir)
	if err != nil {
		return nil, err
	}
	inInfo, outInfo, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrModelUnavailable, modelPath, err)
	}
	inputs, err := pickInputs(infoNames(inInfo))
	if err != nil {
		return nil, err
	}
	outputs, err := pickOutputs(infoNames(outInfo))
	if err != nil {
		return nil, err
	}
	profile.UseTokenTypeIDs = slices.Contains(inputs, tokenTypeIDs)

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("creating session options: %w", err)
	}
	defer opts.Destroy()
	if l.cfg.Threads > 0 {
		if err := opts.SetIntraOpNumThreads(l.cfg.Threads); err != nil {
			return nil, fmt.Errorf("setting threads: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath, inputs, outputs[:], opts)
	if err != nil {
		return nil, fmt.Errorf("%w: creating session for %s: %v", domain.ErrModelUnavailable, modelPath, err)
	}

	logger.Debug("Loaded %s (inputs=%v, outputs=%v, max_seq_len=%d, context_first=%t, pad_left=%t)",
		modelPath, inputs, outputs, profile.MaxSeqLen, profile.ContextFirst, profile.PadLeft)
	return &Model{
		name:      name,
		tokenizer: tok,
		profile:   profile,
		session:   session,
		inputs:    inputs,
		outputs:   outputs,
	}, nil
}

// Close tears down the runtime environment if this loader created it.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.initialized {
		return nil
	}
	l.initialized = false
	return ort.DestroyEnvironment()
}

func (l *Loader) initRuntime() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.initialized || ort.IsInitialized() {
		return nil
	}
	if l.cfg.RuntimeLibrary != "" {
		ort.SetSharedLibraryPath(l.cfg.RuntimeLibrary)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRuntimeUnavailable, err)
	}
	l.initialized = true
	return nil
}

// detectProfile picks the sequence layout from the tokenizer's special tokens.
func detectProfile(tok driven.Tokenizer) (domain.ModelProfile, error) {
	if _, ok := tok.TokenID("[CLS]"); ok {
		return domain.BertProfile(), nil
	}
	if _, ok := tok.TokenID("<s>"); ok {
		return domain.RobertaProfile(), nil
	}
	return domain.ModelProfile{}, fmt.Errorf("%w: tokenizer has neither [CLS] nor <s>", domain.ErrModelUnavailable)
}

// findModelFile locates the ONNX graph inside a model directory.
func findModelFile(dir string) (string, error) {
	for _, candidate := range []string{
		filepath.Join(dir, "model.onnx"),
		filepath.Join(dir, "onnx", "model.onnx"),
	} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	for _, pattern := range []string{"*.onnx", filepath.Join("onnx", "*.onnx")} {
		matches, _ := filepath.Glob(filepath.Join(dir, pattern))
		if len(matches) > 0 {
			slices.Sort(matches)
			return matches[0], nil
		}
	}
	return "", fmt.Errorf("%w: no .onnx file in %s", domain.ErrModelUnavailable, dir)
}

func infoNames(info []ort.InputOutputInfo) []string {
	names := make([]string, len(info))
	for i, v := range info {
		names[i] = v.Name
	}
	return names
}
