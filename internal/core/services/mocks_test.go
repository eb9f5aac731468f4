package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode"

	"github.com/custodia-labs/quanswer/internal/core/domain"
	"github.com/custodia-labs/quanswer/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockTokenizer emits one token per whitespace-separated word.
type mockTokenizer struct {
	mu    sync.Mutex
	vocab map[string]int
}

func newMockTokenizer() *mockTokenizer {
	return &mockTokenizer{vocab: map[string]int{"[PAD]": 0, "[CLS]": 101, "[SEP]": 102}}
}

func (m *mockTokenizer) id(word string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.vocab[word]; ok {
		return id
	}
	id := 1000 + len(m.vocab)
	m.vocab[word] = id
	return id
}

func (m *mockTokenizer) Tokenize(text string) (domain.Encoding, error) {
	var enc domain.Encoding
	runes := []rune(text)
	word := 0
	for i := 0; i < len(runes); {
		if unicode.IsSpace(runes[i]) {
			i++
			continue
		}
		j := i
		for j < len(runes) && !unicode.IsSpace(runes[j]) {
			j++
		}
		enc.IDs = append(enc.IDs, m.id(string(runes[i:j])))
		enc.Offsets = append(enc.Offsets, domain.Offset{Start: i, End: j})
		enc.Words = append(enc.Words, word)
		word++
		i = j
	}
	return enc, nil
}

func (m *mockTokenizer) TokenID(token string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.vocab[token]
	return id, ok
}

// mockModel points its start and end logits at the token whose text is target.
// An empty target points both at the classification token.
type mockModel struct {
	name   string
	tok    *mockTokenizer
	target string
	err    error

	mu     sync.Mutex
	calls  int
	closed bool
}

var _ driven.QAModel = (*mockModel)(nil)

func newMockModel(name, target string) *mockModel {
	return &mockModel{name: name, tok: newMockTokenizer(), target: target}
}

func (m *mockModel) Name() string                 { return m.name }
func (m *mockModel) Tokenizer() driven.Tokenizer  { return m.tok }
func (m *mockModel) Profile() domain.ModelProfile { return domain.BertProfile() }

func (m *mockModel) Logits(_ context.Context, in domain.ModelInput) ([]float32, []float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.err != nil {
		return nil, nil, m.err
	}

	targetID := -1
	if m.target != "" {
		if id, ok := m.tok.TokenID(m.target); ok {
			targetID = id
		}
	}
	start := make([]float32, in.Len())
	end := make([]float32, in.Len())
	hit := false
	for i, id := range in.InputIDs {
		if int(id) == targetID && !hit {
			start[i], end[i] = 20, 20
			hit = true
		}
	}
	if !hit {
		start[0], end[0] = 20, 20
	}
	return start, end, nil
}

func (m *mockModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockLoader hands out pre-built models by name.
type mockLoader struct {
	models  map[string]*mockModel
	local   map[string]bool
	loadErr error

	mu    sync.Mutex
	loads int
}

var _ driven.ModelLoader = (*mockLoader)(nil)

func (m *mockLoader) Load(_ context.Context, name string) (driven.QAModel, error) {
	m.mu.Lock()
	m.loads++
	m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	model, ok := m.models[name]
	if !ok {
		return nil, domain.ErrModelUnavailable
	}
	return model, nil
}

func (m *mockLoader) IsLocal(name string) bool {
	return m.local[name] || strings.HasPrefix(name, "/")
}

func (m *mockLoader) Close() error { return nil }

// mockCache is an in-memory driven.ResultCache.
type mockCache struct {
	mu      sync.Mutex
	entries map[string]domain.Result
	getErr  error
	puts    int
}

var _ driven.ResultCache = (*mockCache)(nil)

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string]domain.Result)}
}

func (m *mockCache) Get(_ context.Context, key string) (*domain.Result, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	r, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	return &r, true, nil
}

func (m *mockCache) Put(_ context.Context, key string, r *domain.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	m.entries[key] = *r
	return nil
}

func (m *mockCache) Close() error { return nil }

// mockRunStore records runs in memory, newest first.
type mockRunStore struct {
	mu   sync.Mutex
	runs []domain.Run
}

var _ driven.RunStore = (*mockRunStore)(nil)

func (m *mockRunStore) SaveRun(_ context.Context, run domain.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append([]domain.Run{run}, m.runs...)
	return nil
}

func (m *mockRunStore) ListRuns(_ context.Context, limit int) ([]domain.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.runs) {
		limit = len(m.runs)
	}
	return append([]domain.Run(nil), m.runs[:limit]...), nil
}

var errInference = errors.New("inference failed")
