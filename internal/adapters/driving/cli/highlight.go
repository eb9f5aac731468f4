package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/quanswer/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/quanswer/internal/core/domain"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// highlighter renders a context with every word shaded by its inclusion
// probability.
type highlighter struct {
	w      io.Writer
	styles *styles.Styles
}

func newHighlighter(w io.Writer) *highlighter {
	return &highlighter{
		w:      w,
		styles: styles.NewStyles(styles.DefaultTheme(), lipgloss.NewRenderer(w)),
	}
}

// Write prints the record header and the shaded context.
func (h *highlighter) Write(ex domain.Example, res *domain.Result) error {
	best := res.Best()
	header := h.styles.Title.Render(ex.ID)
	if strings.TrimSpace(ex.Question) != "" {
		header += " " + h.styles.Muted.Render(ex.Question)
	}
	answer := h.styles.Muted.Render("(no answer)")
	if best.Text != "" {
		answer = h.styles.Answer.Render(best.Text)
	}
	_, err := fmt.Fprintf(h.w, "%s\n%s %s\n%s\n\n", header, answer,
		h.styles.Muted.Render(fixed(best.Score).String()), h.Render(ex.Context, res))
	return err
}

// Render shades each word span of context.
func (h *highlighter) Render(context string, res *domain.Result) string {
	return h.styles.Shade(context, res.TokenScores, res.TokenSpans)
}
