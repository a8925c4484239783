// Package resources implements MCP resource handlers for the memory
// server.
//
// Resources provide read-only data that the host can consume for
// context. They use URI-based addressing (memory://...) following MCP
// conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/mnemo/internal/memory"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handler manages memory resource endpoints.
type Handler struct {
	facts    *memory.FactStore
	episodes *memory.EpisodeStore
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(facts *memory.FactStore, episodes *memory.EpisodeStore) *Handler {
	return &Handler{facts: facts, episodes: episodes}
}

// StatsResource returns the MCP resource definition for memory stats.
func (h *Handler) StatsResource() mcp.Resource {
	return mcp.NewResource(
		"memory://stats",
		"Memory Statistics",
		mcp.WithResourceDescription("Aggregate statistics for both memory tiers"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStats returns combined tier statistics as JSON.
func (h *Handler) HandleStats(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	factStats, err := h.facts.Stats()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	episodeStats, err := h.episodes.Stats()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"facts":    factStats,
		"episodes": episodeStats,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling stats: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
