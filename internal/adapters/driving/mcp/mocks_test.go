package mcp

import (
	"context"

	"github.com/custodia-labs/quanswer/internal/core/domain"
)

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	model    string
	examples []domain.Example
	opts     domain.AnswerOptions
	items    []domain.ItemResult
	err      error
}

func (m *mockAnswerService) Answer(
	_ context.Context,
	model string,
	examples []domain.Example,
	opts domain.AnswerOptions,
) ([]domain.ItemResult, error) {
	m.model = model
	m.examples = examples
	m.opts = opts
	return m.items, m.err
}

// mockModelService is a mock implementation of driving.ModelService.
type mockModelService struct {
	models []domain.ModelInfo
	err    error
}

func (m *mockModelService) List(_ context.Context) ([]domain.ModelInfo, error) {
	return m.models, m.err
}

func (m *mockModelService) Resolve(langOrName string) string {
	return langOrName
}

// mockHistoryService is a mock implementation of driving.HistoryService.
type mockHistoryService struct {
	runs  []domain.Run
	limit int
	err   error
}

func (m *mockHistoryService) Recent(_ context.Context, limit int) ([]domain.Run, error) {
	m.limit = limit
	return m.runs, m.err
}
