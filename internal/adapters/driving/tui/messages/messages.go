// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/custodia-labs/quanswer/internal/core/domain"
)

// AnswerCompleted carries the result of one question back to the model.
type AnswerCompleted struct {
	Question string
	Result   *domain.Result
	Err      error
}

// PassageChanged replaces the passage, for example after the file was edited.
type PassageChanged struct {
	Passage string
}
