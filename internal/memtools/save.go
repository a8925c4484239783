package memtools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/HendryAvila/mnemo/internal/memory"
	"github.com/mark3labs/mcp-go/mcp"
)

// SaveFactTool handles the mem_save_fact MCP tool.
type SaveFactTool struct {
	facts *memory.FactStore
}

// NewSaveFactTool creates a SaveFactTool over the given fact store.
func NewSaveFactTool(facts *memory.FactStore) *SaveFactTool {
	return &SaveFactTool{facts: facts}
}

// Definition returns the MCP tool definition for mem_save_fact.
func (t *SaveFactTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_save_fact",
		mcp.WithDescription(
			"Save a symbolic fact to persistent memory. Facts are authoritative: one value per (scope, key). "+
				"Saving over an existing fact replaces it only when the new confidence is strictly higher.",
		),
		mcp.WithString("scope",
			mcp.Required(),
			mcp.Description("Where the fact applies: session, project, user or org"),
		),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("Kind of fact: preference, constraint, decision or fact"),
		),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("Stable identifier within the scope (e.g. 'editor.theme')"),
		),
		mcp.WithString("value",
			mcp.Required(),
			mcp.Description("The fact's value. A JSON document is stored verbatim; anything else is stored as a string."),
		),
		mcp.WithNumber("confidence",
			mcp.Description("How certain the fact is, in [0,1] (default: 0.7)"),
		),
		mcp.WithString("source",
			mcp.Description("Who asserted it: user, agent or tool (default: agent)"),
		),
	)
}

// Handle processes the mem_save_fact tool call.
func (t *SaveFactTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scope := req.GetString("scope", "")
	category := req.GetString("category", "")
	key := req.GetString("key", "")
	rawValue := req.GetString("value", "")

	if scope == "" || category == "" || key == "" || rawValue == "" {
		return mcp.NewToolResultError("'scope', 'category', 'key' and 'value' are required"), nil
	}

	var value memory.Value
	if json.Valid([]byte(rawValue)) {
		v, err := memory.RawValue(rawValue)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid value: %v", err)), nil
		}
		value = v
	} else {
		value = memory.StringValue(rawValue)
	}

	fact := memory.Fact{
		Scope:      scope,
		Category:   category,
		Key:        key,
		Value:      value,
		Confidence: floatArg(req, "confidence", 0.7),
		Source:     req.GetString("source", "agent"),
	}

	stored, err := t.facts.Store(fact)
	if err != nil {
		var verr *memory.ValidationError
		if errors.As(err, &verr) {
			return mcp.NewToolResultError(fmt.Sprintf("invalid fact: %v", verr)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to save fact: %v", err)), nil
	}

	if stored.Value.JSON() != value.JSON() {
		return mcp.NewToolResultText(fmt.Sprintf(
			"Existing fact kept: %s/%s already holds %s at confidence %.2f (new write had lower or equal confidence).\nID: %s",
			scope, key, stored.Value.JSON(), stored.Confidence, stored.ID,
		)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Fact saved: %s/%s = %s (confidence %.2f)\nID: %s",
		scope, key, stored.Value.JSON(), stored.Confidence, stored.ID,
	)), nil
}

// ─── SaveEpisodeTool ─────────────────────────────────────────────────────────

// SaveEpisodeTool handles the mem_save_episode MCP tool. Candidates go
// through the lesson validator; anything fact-shaped or too literal is
// rejected with the reason, and low-confidence candidates are dropped
// without an error.
type SaveEpisodeTool struct {
	validator *memory.Validator
	episodes  *memory.EpisodeStore
}

// NewSaveEpisodeTool creates a SaveEpisodeTool.
func NewSaveEpisodeTool(validator *memory.Validator, episodes *memory.EpisodeStore) *SaveEpisodeTool {
	return &SaveEpisodeTool{validator: validator, episodes: episodes}
}

// Definition returns the MCP tool definition for mem_save_episode.
func (t *SaveEpisodeTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_save_episode",
		mcp.WithDescription(
			"Record a lesson learned from a completed task. The lesson must generalize — "+
				"state what to do differently next time, not a fact about this project.",
		),
		mcp.WithString("situation",
			mcp.Required(),
			mcp.Description("What was going on when the lesson emerged"),
		),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("What was done"),
		),
		mcp.WithString("outcome",
			mcp.Required(),
			mcp.Description("What happened as a result"),
		),
		mcp.WithString("lesson",
			mcp.Required(),
			mcp.Description("The transferable takeaway (e.g. 'prefer X before Y when Z')"),
		),
		mcp.WithNumber("confidence",
			mcp.Description("How certain the lesson is, in [0,1] (default: 0.7)"),
		),
	)
}

// Handle processes the mem_save_episode tool call.
func (t *SaveEpisodeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	candidate := memory.Candidate{
		Situation:  req.GetString("situation", ""),
		Action:     req.GetString("action", ""),
		Outcome:    req.GetString("outcome", ""),
		Lesson:     req.GetString("lesson", ""),
		Confidence: floatArg(req, "confidence", 0.7),
	}

	episode, err := t.validator.Validate(candidate)
	if err != nil {
		var verr *memory.ValidationError
		if errors.As(err, &verr) {
			return mcp.NewToolResultError(fmt.Sprintf("lesson rejected: %v", verr)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to validate lesson: %v", err)), nil
	}
	if episode == nil {
		return mcp.NewToolResultText(fmt.Sprintf(
			"Lesson discarded: confidence %.2f is below the %.2f floor. Nothing was stored.",
			candidate.Confidence, t.validator.Rules().MinConfidence,
		)), nil
	}

	stored, err := t.episodes.Store(*episode)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save episode: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Episode saved: %q (confidence %.2f)\nID: %s",
		stored.Lesson, stored.Confidence, stored.ID,
	)), nil
}
