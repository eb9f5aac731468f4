package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for quanswer resources.
	uriScheme = "quanswer://"

	// recentRuns bounds the runs resource.
	recentRuns = 20
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "models",
		Name:        "models",
		Description: "Default model per language and whether it is downloaded",
		MIMEType:    "application/json",
	}, s.handleModelsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "runs",
		Name:        "runs",
		Description: "Recent answer runs",
		MIMEType:    "application/json",
	}, s.handleRunsResource)
}

// handleModelsResource lists known models.
func (s *Server) handleModelsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Models == nil {
		return jsonResource(req.Params.URI, []any{})
	}

	models, err := s.ports.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}

	type modelInfo struct {
		Lang   string `json:"lang,omitempty"`
		Name   string `json:"name"`
		Local  bool   `json:"local"`
		Loaded bool   `json:"loaded"`
	}

	infos := make([]modelInfo, len(models))
	for i, m := range models {
		infos[i] = modelInfo{Lang: m.Lang, Name: m.Name, Local: m.Local, Loaded: m.Loaded}
	}
	return jsonResource(req.Params.URI, infos)
}

// handleRunsResource lists recent runs.
func (s *Server) handleRunsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.History == nil {
		return jsonResource(req.Params.URI, []any{})
	}

	runs, err := s.ports.History.Recent(ctx, recentRuns)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	type runInfo struct {
		ID         string  `json:"id"`
		Model      string  `json:"model"`
		Examples   int     `json:"examples"`
		Failures   int     `json:"failures"`
		CacheHits  int     `json:"cache_hits"`
		StartedAt  string  `json:"started_at"`
		DurationMS float64 `json:"duration_ms"`
	}

	infos := make([]runInfo, len(runs))
	for i, r := range runs {
		infos[i] = runInfo{
			ID:         r.ID,
			Model:      r.Model,
			Examples:   r.Examples,
			Failures:   r.Failures,
			CacheHits:  r.CacheHits,
			StartedAt:  r.StartedAt.UTC().Format("2006-01-02T15:04:05Z"),
			DurationMS: float64(r.Duration.Microseconds()) / 1000,
		}
	}
	return jsonResource(req.Params.URI, infos)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
