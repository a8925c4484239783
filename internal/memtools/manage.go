package memtools

import (
	"context"
	"fmt"

	"github.com/HendryAvila/mnemo/internal/memory"
	"github.com/mark3labs/mcp-go/mcp"
)

// DeleteFactTool handles the mem_delete_fact MCP tool.
type DeleteFactTool struct {
	facts *memory.FactStore
}

// NewDeleteFactTool creates a DeleteFactTool.
func NewDeleteFactTool(facts *memory.FactStore) *DeleteFactTool {
	return &DeleteFactTool{facts: facts}
}

// Definition returns the MCP tool definition for mem_delete_fact.
func (t *DeleteFactTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_delete_fact",
		mcp.WithDescription(
			"Delete a fact by ID. The deletion is recorded in the audit trail; the fact row itself is removed.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The fact's ID (from mem_query_facts or mem_save_fact)"),
		),
	)
}

// Handle processes the mem_delete_fact tool call.
func (t *DeleteFactTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	deleted, err := t.facts.Delete(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete fact: %v", err)), nil
	}
	if !deleted {
		return mcp.NewToolResultText(fmt.Sprintf("No fact with ID %s.", id)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Fact %s deleted.", id)), nil
}

// ─── CleanupEpisodesTool ─────────────────────────────────────────────────────

// CleanupEpisodesTool handles the mem_cleanup_episodes MCP tool.
// Both thresholds must hold for an episode to be removed: a confident
// old lesson survives, and so does a recent shaky one.
type CleanupEpisodesTool struct {
	episodes *memory.EpisodeStore
	days     int
	minConf  float64
}

// NewCleanupEpisodesTool creates a CleanupEpisodesTool with the given
// default thresholds.
func NewCleanupEpisodesTool(episodes *memory.EpisodeStore, days int, minConf float64) *CleanupEpisodesTool {
	return &CleanupEpisodesTool{episodes: episodes, days: days, minConf: minConf}
}

// Definition returns the MCP tool definition for mem_cleanup_episodes.
func (t *CleanupEpisodesTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_cleanup_episodes",
		mcp.WithDescription(
			"Prune stale episodes. Removes only episodes that are BOTH older than the age threshold "+
				"AND below the confidence threshold.",
		),
		mcp.WithNumber("days",
			mcp.Description("Age threshold in days (default: server configured)"),
		),
		mcp.WithNumber("min_confidence",
			mcp.Description("Confidence threshold (default: server configured)"),
		),
	)
}

// Handle processes the mem_cleanup_episodes tool call.
func (t *CleanupEpisodesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days := intArg(req, "days", t.days)
	minConf := floatArg(req, "min_confidence", t.minConf)

	if days <= 0 {
		return mcp.NewToolResultError("'days' must be positive"), nil
	}

	removed, err := t.episodes.Cleanup(days, minConf)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cleanup failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Removed %d episodes older than %d days with confidence below %.2f.",
		removed, days, minConf,
	)), nil
}
