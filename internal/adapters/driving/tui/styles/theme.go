// Package styles provides colour themes and styling for terminal output.
package styles

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/quanswer/internal/core/domain"
)

// Theme defines the colour palette for terminal output.
type Theme struct {
	// Primary is the main accent colour.
	Primary lipgloss.Color

	// Foreground is the default text colour.
	Foreground lipgloss.Color

	// Muted is for less important text.
	Muted lipgloss.Color

	// Success indicates an answered question.
	Success lipgloss.Color

	// Error indicates problems.
	Error lipgloss.Color

	// Heat shades inclusion probabilities from low to high.
	Heat []lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#7C3AED"), // Purple
		Foreground: lipgloss.Color("#CDD6F4"), // Light gray
		Muted:      lipgloss.Color("#6C7086"), // Medium gray
		Success:    lipgloss.Color("#A6E3A1"), // Green
		Error:      lipgloss.Color("#F38BA8"), // Red
		Heat: []lipgloss.Color{
			lipgloss.Color("#313244"),
			lipgloss.Color("#45475A"),
			lipgloss.Color("#7F6A3A"),
			lipgloss.Color("#B8860B"),
			lipgloss.Color("#F9E2AF"),
		},
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme
	heat  []lipgloss.Style

	// Title style for record headers.
	Title lipgloss.Style

	// Muted style for less important text.
	Muted lipgloss.Style

	// Error style for error messages.
	Error lipgloss.Style

	// Answer style for the best answer.
	Answer lipgloss.Style
}

// NewStyles creates styles from a theme, rendered for r.
// A nil renderer uses lipgloss's default (stdout).
func NewStyles(theme *Theme, r *lipgloss.Renderer) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}

	s := &Styles{
		theme: theme,

		Title: r.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Muted: r.NewStyle().
			Foreground(theme.Muted),

		Error: r.NewStyle().
			Foreground(theme.Error),

		Answer: r.NewStyle().
			Bold(true).
			Foreground(theme.Success),
	}
	for i, c := range theme.Heat {
		fg := theme.Foreground
		if i == len(theme.Heat)-1 {
			fg = lipgloss.Color("#1E1E2E")
		}
		s.heat = append(s.heat, r.NewStyle().Background(c).Foreground(fg))
	}
	return s
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme(), nil)
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// Heat returns the style for a probability in [0,1].
func (s *Styles) Heat(p float64) lipgloss.Style {
	return s.heat[HeatLevel(p, len(s.heat))]
}

// HeatLevel buckets p into one of n levels. NaN maps to the lowest level.
func HeatLevel(p float64, n int) int {
	if n <= 1 || math.IsNaN(p) || p <= 0 {
		return 0
	}
	if p >= 1 {
		return n - 1
	}
	return min(int(p*float64(n)), n-1)
}

// Shade renders context with each word span styled by its score. Spans are
// inclusive rune ranges in ascending order; overlapping or out of range spans
// are left unstyled.
func (s *Styles) Shade(context string, scores []float64, spans []domain.Span) string {
	runes := []rune(context)
	var b strings.Builder
	pos := 0
	for i, span := range spans {
		if span.Start < pos || span.End >= len(runes) || span.End < span.Start {
			continue
		}
		b.WriteString(string(runes[pos:span.Start]))
		score := 0.0
		if i < len(scores) {
			score = scores[i]
		}
		b.WriteString(s.Heat(score).Render(string(runes[span.Start : span.End+1])))
		pos = span.End + 1
	}
	b.WriteString(string(runes[pos:]))
	return b.String()
}
