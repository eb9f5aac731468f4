// Package mcp provides an MCP (Model Context Protocol) server adapter for quanswer.
// It lets AI assistants ask extractive questions against passages they supply.
package mcp

import "errors"

// ErrMissingAnswerService is returned when the answer service is not provided.
var ErrMissingAnswerService = errors.New("mcp: answer service is required")
