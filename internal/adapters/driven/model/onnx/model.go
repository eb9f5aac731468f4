package onnx

import (
	"context"
	"fmt"
	"strings"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/custodia-labs/quanswer/internal/core/domain"
	"github.com/custodia-labs/quanswer/internal/core/ports/driven"
)

// Ensure Model implements the interface.
var _ driven.QAModel = (*Model)(nil)

// Input names used by HuggingFace QA exports.
const (
	inputIDs      = "input_ids"
	attentionMask = "attention_mask"
	tokenTypeIDs  = "token_type_ids"
)

// Model is one loaded ONNX question-answering model.
// Logits is safe for concurrent use.
type Model struct {
	name      string
	tokenizer *Tokenizer
	profile   domain.ModelProfile
	session   *ort.DynamicAdvancedSession
	inputs    []string
	outputs   [2]string
}

// Name returns the model identifier.
func (m *Model) Name() string {
	return m.name
}

// Tokenizer returns the model's tokenizer.
func (m *Model) Tokenizer() driven.Tokenizer {
	return m.tokenizer
}

// Profile returns the input layout the model expects.
func (m *Model) Profile() domain.ModelProfile {
	return m.profile
}

// Logits runs the model on one sequence and returns its start and end logits.
func (m *Model) Logits(ctx context.Context, in domain.ModelInput) ([]float32, []float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	n := in.Len()
	if n == 0 {
		return nil, nil, fmt.Errorf("%w: empty model input", domain.ErrInvalidInput)
	}
	shape := ort.NewShape(1, int64(n))

	var values []ort.Value
	defer func() {
		for _, v := range values {
			_ = v.Destroy()
		}
	}()

	inputs := make([]ort.Value, 0, len(m.inputs))
	for _, name := range m.inputs {
		data, err := inputData(name, in)
		if err != nil {
			return nil, nil, err
		}
		t, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, nil, fmt.Errorf("creating %s tensor: %w", name, err)
		}
		values = append(values, t)
		inputs = append(inputs, t)
	}

	start, err := ort.NewEmptyTensor[float32](shape)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output tensor: %w", err)
	}
	values = append(values, start)
	end, err := ort.NewEmptyTensor[float32](shape)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output tensor: %w", err)
	}
	values = append(values, end)

	if err := m.session.Run(inputs, []ort.Value{start, end}); err != nil {
		return nil, nil, fmt.Errorf("running %s: %w", m.name, err)
	}

	return append([]float32(nil), start.GetData()...), append([]float32(nil), end.GetData()...), nil
}

// Close releases the session.
func (m *Model) Close() error {
	if m.session == nil {
		return nil
	}
	err := m.session.Destroy()
	m.session = nil
	return err
}

// inputData selects the tensor data for a named model input.
func inputData(name string, in domain.ModelInput) ([]int64, error) {
	switch name {
	case inputIDs:
		return in.InputIDs, nil
	case attentionMask:
		return in.AttentionMask, nil
	case tokenTypeIDs:
		if in.TokenTypeIDs == nil {
			return make([]int64, len(in.InputIDs)), nil
		}
		return in.TokenTypeIDs, nil
	default:
		return nil, fmt.Errorf("%w: unsupported model input %q", domain.ErrModelUnavailable, name)
	}
}

// pickOutputs finds the start and end logit outputs by name, falling back to
// the first two outputs in declaration order.
func pickOutputs(names []string) ([2]string, error) {
	var out [2]string
	for _, name := range names {
		lower := strings.ToLower(name)
		switch {
		case out[0] == "" && strings.Contains(lower, "start"):
			out[0] = name
		case out[1] == "" && strings.Contains(lower, "end"):
			out[1] = name
		}
	}
	if out[0] != "" && out[1] != "" {
		return out, nil
	}
	if len(names) < 2 {
		return out, fmt.Errorf("%w: expected start and end logits, model has %d outputs",
			domain.ErrModelUnavailable, len(names))
	}
	return [2]string{names[0], names[1]}, nil
}

// pickInputs keeps the inputs the model declares, in declaration order.
func pickInputs(names []string) ([]string, error) {
	var inputs []string
	hasIDs := false
	for _, name := range names {
		switch name {
		case inputIDs:
			hasIDs = true
			inputs = append(inputs, name)
		case attentionMask, tokenTypeIDs:
			inputs = append(inputs, name)
		default:
			return nil, fmt.Errorf("%w: unsupported model input %q", domain.ErrModelUnavailable, name)
		}
	}
	if !hasIDs {
		return nil, fmt.Errorf("%w: model has no %s input", domain.ErrModelUnavailable, inputIDs)
	}
	return inputs, nil
}
