package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/quanswer/internal/core/domain"
)

// defaultModel is used when a tool call names no model.
const defaultModel = "en"

// AnswerInput is the input schema for the answer tool.
type AnswerInput struct {
	Question    string `json:"question" jsonschema:"the question to answer"`
	Context     string `json:"context" jsonschema:"the passage the answer is extracted from"`
	Model       string `json:"model,omitempty" jsonschema:"language code or model name (default en)"`
	TopK        int    `json:"top_k,omitempty" jsonschema:"number of answer candidates (default 1)"`
	MustAnswer  bool   `json:"must_answer,omitempty" jsonschema:"never return the empty answer"`
	TokenScores bool   `json:"token_scores,omitempty" jsonschema:"include per-word inclusion probabilities"`
}

// AnswerOutput is the output schema for the answer tool.
type AnswerOutput struct {
	IsAnswered  *float64       `json:"is_answered,omitempty"`
	Answers     []AnswerResult `json:"answers"`
	TokenScores []float64      `json:"token_scores,omitempty"`
	TokenSpans  [][]int        `json:"token_spans,omitempty"`
}

// AnswerResult represents a single answer candidate.
type AnswerResult struct {
	Score float64 `json:"score"`
	Start int     `json:"start"`
	End   int     `json:"end"`
	Text  string  `json:"answer"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "answer",
		Description: "Extract the answer to a question from a passage. " +
			"Returns ranked answer spans with character offsets and, unless must_answer is set, " +
			"the probability that the passage answers the question at all.",
	}, s.handleAnswer)
}

// handleAnswer handles the answer tool invocation.
func (s *Server) handleAnswer(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnswerInput,
) (*mcp.CallToolResult, AnswerOutput, error) {
	if input.Question == "" || input.Context == "" {
		return nil, AnswerOutput{}, fmt.Errorf("%w: question and context are required", domain.ErrInvalidInput)
	}
	model := input.Model
	if model == "" {
		model = defaultModel
	}

	opts := domain.AnswerOptions{
		TopK:        input.TopK,
		MustAnswer:  input.MustAnswer,
		TokenScores: input.TokenScores,
	}
	items, err := s.ports.Answer.Answer(ctx, model, []domain.Example{{
		ID:       "0",
		Question: input.Question,
		Context:  input.Context,
	}}, opts)
	if err != nil {
		return nil, AnswerOutput{}, err
	}
	if len(items) == 0 {
		return nil, AnswerOutput{}, fmt.Errorf("no result for question %q", input.Question)
	}
	if items[0].Err != nil {
		return nil, AnswerOutput{}, items[0].Err
	}

	res := items[0].Result
	output := AnswerOutput{
		IsAnswered:  res.IsAnswered,
		Answers:     make([]AnswerResult, len(res.Answers)),
		TokenScores: res.TokenScores,
	}
	for i, a := range res.Answers {
		output.Answers[i] = AnswerResult{Score: a.Score, Start: a.Start, End: a.End, Text: a.Text}
	}
	for _, span := range res.TokenSpans {
		output.TokenSpans = append(output.TokenSpans, []int{span.Start, span.End})
	}

	return nil, output, nil
}
