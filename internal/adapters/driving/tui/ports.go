// Package tui provides an interactive terminal user interface for asking
// questions about one passage. It is a driving adapter like the CLI.
package tui

import (
	"github.com/custodia-labs/quanswer/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI needs.
type Ports struct {
	// Answer answers questions against the passage.
	Answer driving.AnswerService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Answer == nil {
		return ErrMissingAnswerService
	}
	return nil
}
