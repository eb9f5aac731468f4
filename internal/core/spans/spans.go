// Package spans selects the top-k answer spans from start/end logits.
package spans

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/quanswer/internal/core/domain"
	"github.com/custodia-labs/quanswer/internal/core/scoring"
)

// Options controls span selection.
type Options struct {
	// TopK is the number of answers to return.
	TopK int

	// MaxAnswerLen bounds the number of tokens in a span.
	MaxAnswerLen int

	// HandleImpossible adds the empty answer scored by the sentinel.
	HandleImpossible bool
}

type candidate struct {
	start int
	end   int
	score float64
}

// TopK ranks every span (s, e) with s <= e over the context tokens by
// P_start(s) * P_end(e). offsets are indexed by scored token.
func TopK(st domain.ScoredTokens, offsets []domain.Offset, context string, opts Options) ([]domain.Answer, error) {
	n := len(st.Start)
	if len(offsets) != n {
		return nil, &domain.AlignmentError{Scores: n, Alignment: len(offsets)}
	}
	if opts.TopK <= 0 {
		opts.TopK = 1
	}
	if opts.MaxAnswerLen <= 0 {
		opts.MaxAnswerLen = 15
	}

	startProbs, err := scoring.Softmax(st.Start)
	if err != nil {
		return nil, fmt.Errorf("start scores: %w", err)
	}
	endProbs, err := scoring.Softmax(st.End)
	if err != nil {
		return nil, fmt.Errorf("end scores: %w", err)
	}

	var candidates []candidate
	for s := range n {
		if s == st.Sentinel {
			continue
		}
		for e := s; e < n && e-s < opts.MaxAnswerLen; e++ {
			if e == st.Sentinel {
				continue
			}
			candidates = append(candidates, candidate{start: s, end: e, score: startProbs[s] * endProbs[e]})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > opts.TopK {
		candidates = candidates[:opts.TopK]
	}

	runes := []rune(context)
	answers := make([]domain.Answer, 0, len(candidates)+1)
	for _, c := range candidates {
		from := clampIndex(offsets[c.start].Start, len(runes))
		to := clampIndex(offsets[c.end].End, len(runes))
		if to < from {
			to = from
		}
		answers = append(answers, domain.Answer{
			Score: c.score,
			Start: from,
			End:   to,
			Text:  string(runes[from:to]),
		})
	}

	if opts.HandleImpossible && st.Sentinel != domain.NoSentinel {
		answers = append(answers, domain.Answer{
			Score: startProbs[st.Sentinel] * endProbs[st.Sentinel],
		})
		sort.SliceStable(answers, func(i, j int) bool {
			return answers[i].Score > answers[j].Score
		})
		if len(answers) > opts.TopK {
			answers = answers[:opts.TopK]
		}
	}
	return answers, nil
}

func clampIndex(i, n int) int {
	return max(0, min(i, n))
}
