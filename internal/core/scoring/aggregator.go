package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/quanswer/internal/core/domain"
)

// sentinelWord is the reserved pseudo-word that collects the no-answer position.
const sentinelWord = -2

// wordAccumulator holds the running maximum probability of one word on both axes.
type wordAccumulator struct {
	start float64
	end   float64
}

func (a *wordAccumulator) observe(start, end float64) {
	a.start = max(a.start, start)
	a.end = max(a.end, end)
}

// Aggregate converts raw start/end logits into per-word inclusion probabilities.
// The returned spans are index-aligned with the scores and ordered by word.
// IsAnswered is set only when in.Sentinel names a scored position.
func Aggregate(in domain.ScoredTokens) (*domain.TokenScores, error) {
	n := len(in.Start)
	if len(in.End) != n {
		return nil, fmt.Errorf("%w: %d start scores, %d end scores", domain.ErrInvalidInput, n, len(in.End))
	}
	if in.Sentinel != domain.NoSentinel && (in.Sentinel < 0 || in.Sentinel >= n) {
		return nil, fmt.Errorf("%w: sentinel %d outside %d tokens", domain.ErrInvalidInput, in.Sentinel, n)
	}

	alignment, err := NewAlignment(in.Alignment)
	if err != nil {
		return nil, err
	}
	wm, err := Resolve(alignment, n)
	if err != nil {
		return nil, err
	}

	startProbs, err := Softmax(in.Start)
	if err != nil {
		return nil, fmt.Errorf("start scores: %w", err)
	}
	endProbs, err := Softmax(in.End)
	if err != nil {
		return nil, fmt.Errorf("end scores: %w", err)
	}

	words := mergeWords(wm.Words, in.Sentinel, startProbs, endProbs)

	out := &domain.TokenScores{}
	if in.Sentinel != domain.NoSentinel {
		acc := words[sentinelWord]
		unanswered := max(acc.start, acc.end)
		answered := 1 - unanswered
		out.IsAnswered = &answered
		delete(words, sentinelWord)
	}

	order := make([]int, 0, len(words))
	for w := range words {
		order = append(order, w)
	}
	sort.Ints(order)

	starts := make([]float64, len(order))
	ends := make([]float64, len(order))
	out.Spans = make([]domain.Span, len(order))
	for i, w := range order {
		starts[i] = words[w].start
		ends[i] = words[w].end
		out.Spans[i] = wm.Spans[w]
	}
	out.Scores = Inclusion(starts, ends)

	return out, nil
}

// mergeWords collapses token probabilities into word probabilities by maximum.
// The sentinel token is collected under sentinelWord whatever its word mapping.
func mergeWords(tokenWords []int, sentinel int, startProbs, endProbs []float64) map[int]*wordAccumulator {
	words := make(map[int]*wordAccumulator)
	for t, w := range tokenWords {
		if t == sentinel {
			w = sentinelWord
		} else if w == NoWord {
			continue
		}
		acc, ok := words[w]
		if !ok {
			acc = &wordAccumulator{}
			words[w] = acc
		}
		acc.observe(startProbs[t], endProbs[t])
	}
	return words
}

// Inclusion returns, for every word i, the probability that a span (s, e)
// with s <= i <= e contains it:
//
//	inclusion(i) = sum_{s<=i} start[s] * tail(i) / tail(s),  tail(k) = sum_{e>=k} end[e]
//
// Terms with tail(s) == 0 contribute nothing. The sum is carried forward in
// linear time: acc(i) = acc(i-1) * tail(i)/tail(i-1) + start[i].
func Inclusion(start, end []float64) []float64 {
	m := len(start)
	out := make([]float64, m)
	if m == 0 {
		return out
	}

	tail := make([]float64, m+1)
	for k := m - 1; k >= 0; k-- {
		tail[k] = tail[k+1] + end[k]
	}

	var acc float64
	for i := range m {
		if tail[i] <= 0 {
			acc = 0
			continue
		}
		if i > 0 {
			if tail[i-1] > 0 {
				acc *= tail[i] / tail[i-1]
			} else {
				acc = 0
			}
		}
		acc += start[i]
		out[i] = clamp01(acc)
	}
	return out
}

// Softmax normalizes logits into a probability distribution.
// Non-finite logits are rejected.
func Softmax(logits []float64) ([]float64, error) {
	out := make([]float64, len(logits))
	if len(logits) == 0 {
		return out, nil
	}

	peak := math.Inf(-1)
	for i, v := range logits {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite logit at %d", domain.ErrInvalidInput, i)
		}
		peak = max(peak, v)
	}

	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(v - peak)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out, nil
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
