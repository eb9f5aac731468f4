package onnx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/quanswer/internal/core/domain"
	"github.com/custodia-labs/quanswer/internal/core/ports/driven"
)

// tokenizerConfigFile carries padding_side for transformers-style exports.
const tokenizerConfigFile = "tokenizer_config.json"

// tokenizerFile is the subset of tokenizer.json describing padding.
type tokenizerFile struct {
	Padding *struct {
		Direction string          `json:"direction"`
		Strategy  json.RawMessage `json:"strategy"`
	} `json:"padding"`
}

// tokenizerConfig is the subset of tokenizer_config.json describing padding.
type tokenizerConfig struct {
	PaddingSide string `json:"padding_side"`
}

// readLayout reports the input layout a model directory's tokenizer files declare.
// A left-padding tokenizer puts the context before the question.
// padding_side in tokenizer_config.json wins over tokenizer.json.
func readLayout(dir string) (domain.LayoutOverrides, error) {
	var layout domain.LayoutOverrides

	var tf tokenizerFile
	found, err := readJSON(filepath.Join(dir, "tokenizer.json"), &tf)
	if err != nil {
		return layout, err
	}
	if found && tf.Padding != nil {
		setSide(&layout, tf.Padding.Direction)
		var fixed struct {
			Fixed *int `json:"Fixed"`
		}
		if json.Unmarshal(tf.Padding.Strategy, &fixed) == nil && fixed.Fixed != nil {
			layout.PadToMax = boolPtr(true)
		}
	}

	var tc tokenizerConfig
	found, err = readJSON(filepath.Join(dir, tokenizerConfigFile), &tc)
	if err != nil {
		return layout, err
	}
	if found {
		setSide(&layout, tc.PaddingSide)
	}
	return layout, nil
}

func setSide(layout *domain.LayoutOverrides, side string) {
	switch strings.ToLower(side) {
	case "left":
		layout.PadLeft = boolPtr(true)
		layout.ContextFirst = boolPtr(true)
	case "right":
		layout.PadLeft = boolPtr(false)
		layout.ContextFirst = boolPtr(false)
	}
}

// readJSON decodes path into v. A missing file is not an error.
func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("%w: parsing %s: %v", domain.ErrModelUnavailable, filepath.Base(path), err)
	}
	return true, nil
}

func boolPtr(b bool) *bool { return &b }

// profile builds the sequence layout for the model in dir. Configured
// overrides are applied last.
func (l *Loader) profile(dir string, tok driven.Tokenizer) (domain.ModelProfile, error) {
	profile, err := detectProfile(tok)
	if err != nil {
		return domain.ModelProfile{}, err
	}
	declared, err := readLayout(dir)
	if err != nil {
		return domain.ModelProfile{}, err
	}
	profile = declared.Apply(profile)
	if l.cfg.MaxSeqLen > 0 {
		profile.MaxSeqLen = l.cfg.MaxSeqLen
	}
	return l.cfg.Layout.Apply(profile), nil
}
