package tui

import "errors"

// ErrMissingAnswerService is returned when the answer service is not provided.
var ErrMissingAnswerService = errors.New("tui: answer service is required")

// ErrEmptyPassage is returned when there is no passage to ask about.
var ErrEmptyPassage = errors.New("tui: passage is empty")
