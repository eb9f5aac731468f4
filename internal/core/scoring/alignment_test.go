package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quanswer/internal/core/domain"
)

func TestNewAlignment_SelectsStrategy(t *testing.T) {
	t.Run("fast", func(t *testing.T) {
		a, err := NewAlignment(domain.AlignmentData{Fast: &domain.FastAlignment{}})
		require.NoError(t, err)
		assert.IsType(t, &FastAlignment{}, a)
	})

	t.Run("slow", func(t *testing.T) {
		a, err := NewAlignment(domain.AlignmentData{Slow: &domain.SlowAlignment{}})
		require.NoError(t, err)
		assert.IsType(t, &SlowAlignment{}, a)
	})

	t.Run("both", func(t *testing.T) {
		_, err := NewAlignment(domain.AlignmentData{
			Fast: &domain.FastAlignment{},
			Slow: &domain.SlowAlignment{},
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("neither", func(t *testing.T) {
		_, err := NewAlignment(domain.AlignmentData{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestFastAlignment(t *testing.T) {
	// "unbelievable day" tokenized as [un, believ, able, day].
	a, err := NewFastAlignment(domain.FastAlignment{
		Words:   []int{NoWord, 0, 0, 0, 1},
		Offsets: []domain.Offset{{}, {Start: 0, End: 2}, {Start: 2, End: 8}, {Start: 8, End: 12}, {Start: 13, End: 16}},
	})
	require.NoError(t, err)

	assert.Equal(t, 5, a.TokenCount())

	_, ok := a.Resolve(0)
	assert.False(t, ok)
	w, ok := a.Resolve(3)
	assert.True(t, ok)
	assert.Equal(t, 0, w)
	_, ok = a.Resolve(99)
	assert.False(t, ok)

	span, ok := a.CharSpan(0)
	require.True(t, ok)
	assert.Equal(t, domain.Span{Start: 0, End: 11}, span)
	span, ok = a.CharSpan(1)
	require.True(t, ok)
	assert.Equal(t, domain.Span{Start: 13, End: 15}, span)
	_, ok = a.CharSpan(2)
	assert.False(t, ok)
}

func TestFastAlignment_LengthMismatch(t *testing.T) {
	_, err := NewFastAlignment(domain.FastAlignment{
		Words:   []int{0, 1},
		Offsets: []domain.Offset{{Start: 0, End: 1}},
	})

	var alignErr *domain.AlignmentError
	require.ErrorAs(t, err, &alignErr)
	assert.Equal(t, 2, alignErr.Scores)
	assert.Equal(t, 1, alignErr.Alignment)
	assert.ErrorIs(t, err, domain.ErrAlignment)
	assert.NotErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSlowAlignment(t *testing.T) {
	// "The cat sat" split on whitespace.
	a := NewSlowAlignment(domain.SlowAlignment{
		TokenToWord: []int{NoWord, 0, 1, 1, 2},
		CharToWord:  []int{0, 0, 0, NoWord, 1, 1, 1, NoWord, 2, 2, 2},
	})

	assert.Equal(t, 5, a.TokenCount())
	w, ok := a.Resolve(3)
	require.True(t, ok)
	assert.Equal(t, 1, w)

	for word, want := range []domain.Span{{Start: 0, End: 2}, {Start: 4, End: 6}, {Start: 8, End: 10}} {
		span, ok := a.CharSpan(word)
		require.True(t, ok)
		assert.Equal(t, want, span)
	}
}

func TestResolve(t *testing.T) {
	a := NewSlowAlignment(domain.SlowAlignment{
		TokenToWord: []int{NoWord, 0, 0, 1},
		CharToWord:  []int{0, 0, NoWord, 1},
	})

	wm, err := Resolve(a, 4)

	require.NoError(t, err)
	assert.Equal(t, []int{NoWord, 0, 0, 1}, wm.Words)
	assert.Len(t, wm.Spans, 2)
}

func TestResolve_SpansAreMonotonic(t *testing.T) {
	a := NewSlowAlignment(domain.SlowAlignment{
		TokenToWord: []int{0, 1, 2, 3},
		CharToWord:  []int{0, NoWord, 1, 1, NoWord, 2, NoWord, 3, 3, 3},
	})

	wm, err := Resolve(a, 4)
	require.NoError(t, err)

	for w := 1; w < 4; w++ {
		assert.GreaterOrEqual(t, wm.Spans[w].Start, wm.Spans[w-1].Start)
	}
}

func TestResolve_CountMismatch(t *testing.T) {
	a := NewSlowAlignment(domain.SlowAlignment{TokenToWord: []int{0, 1}})

	_, err := Resolve(a, 3)

	var alignErr *domain.AlignmentError
	require.ErrorAs(t, err, &alignErr)
	assert.Equal(t, 3, alignErr.Scores)
	assert.Equal(t, 2, alignErr.Alignment)
	assert.ErrorIs(t, err, domain.ErrAlignment)
}

func TestResolve_WordWithoutSpan(t *testing.T) {
	a := NewSlowAlignment(domain.SlowAlignment{
		TokenToWord: []int{0, 5},
		CharToWord:  []int{0},
	})

	_, err := Resolve(a, 2)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
