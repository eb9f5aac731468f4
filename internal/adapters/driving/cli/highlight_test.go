package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quanswer/internal/core/domain"
)

func TestIsTerminal_Buffer(t *testing.T) {
	assert.False(t, isTerminal(new(bytes.Buffer)))
}

func TestHighlighter_Render(t *testing.T) {
	// A buffer has no colour profile, so styling leaves the text untouched.
	h := newHighlighter(new(bytes.Buffer))

	got := h.Render("In Paris", &domain.Result{
		TokenScores: []float64{0.1, 0.9},
		TokenSpans:  []domain.Span{{Start: 0, End: 1}, {Start: 3, End: 7}},
	})

	assert.Equal(t, "In Paris", got)
}

func TestHighlighter_Write(t *testing.T) {
	buf := new(bytes.Buffer)
	h := newHighlighter(buf)

	err := h.Write(domain.Example{ID: "1", Question: "Where?", Context: "In Paris"}, &domain.Result{
		Answers:     []domain.Answer{{Score: 0.5, Start: 3, End: 8, Text: "Paris"}},
		TokenScores: []float64{0.1, 0.9},
		TokenSpans:  []domain.Span{{Start: 0, End: 1}, {Start: 3, End: 7}},
	})

	require.NoError(t, err)
	assert.Equal(t, "1 Where?\nParis 0.50000\nIn Paris\n\n", buf.String())
}

func TestHighlighter_WriteNoAnswer(t *testing.T) {
	buf := new(bytes.Buffer)

	err := newHighlighter(buf).Write(domain.Example{ID: "2", Context: "x"}, &domain.Result{})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "(no answer)")
}
