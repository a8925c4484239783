package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/mnemo/internal/memory"
	"github.com/mark3labs/mcp-go/mcp"
)

// SelectFactsTool handles the mem_select_facts MCP tool. It runs the
// full selection pipeline and returns a bounded, conflict-free fact set
// together with the explanation of how it was chosen.
type SelectFactsTool struct {
	facts memory.FactSource
	cfg   memory.SelectorConfig
}

// NewSelectFactsTool creates a SelectFactsTool with the given default
// selection bounds.
func NewSelectFactsTool(facts memory.FactSource, cfg memory.SelectorConfig) *SelectFactsTool {
	return &SelectFactsTool{facts: facts, cfg: cfg}
}

// Definition returns the MCP tool definition for mem_select_facts.
func (t *SelectFactsTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_select_facts",
		mcp.WithDescription(
			"Select the facts worth injecting into a prompt. Orders by scope priority "+
				"(session > project > user > org) and confidence, filters by request category, "+
				"and resolves conflicting values for the same key. The result is safe to treat as ground truth.",
		),
		mcp.WithString("scopes",
			mcp.Description("Comma-separated scopes to draw from (default: all)"),
		),
		mcp.WithString("request_category",
			mcp.Description("What the facts are for: coding, debugging, planning or output_format (default: general, no category filtering)"),
		),
		mcp.WithNumber("max_facts",
			mcp.Description("Cap on selected facts (default: server configured)"),
		),
		mcp.WithNumber("min_confidence",
			mcp.Description("Confidence floor (default: server configured)"),
		),
		mcp.WithBoolean("allow_conflicts",
			mcp.Description("Keep all conflicting facts instead of resolving to one winner"),
		),
	)
}

// Handle processes the mem_select_facts tool call.
func (t *SelectFactsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := t.cfg
	cfg.MaxFacts = intArg(req, "max_facts", cfg.MaxFacts)
	cfg.MinConfidence = floatArg(req, "min_confidence", cfg.MinConfidence)

	var scopes []string
	if raw := req.GetString("scopes", ""); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				scopes = append(scopes, s)
			}
		}
	}

	selector := memory.NewSelector(t.facts, cfg)
	selection, err := selector.Select(memory.SelectionRequest{
		Scopes:          scopes,
		RequestCategory: req.GetString("request_category", ""),
		AllowConflicts:  boolArg(req, "allow_conflicts", false),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("selection failed: %v", err)), nil
	}

	var b strings.Builder
	if len(selection.Facts) == 0 {
		b.WriteString("No facts selected.\n\n")
	} else {
		fmt.Fprintf(&b, "Selected %d facts:\n\n", len(selection.Facts))
		for i, f := range selection.Facts {
			fmt.Fprintf(&b, "[%d] %s/%s (%s) = %s | confidence %.2f\n",
				i+1, f.Scope, f.Key, f.Category, f.Value.JSON(), f.Confidence)
		}
		b.WriteString("\n")
	}

	for _, c := range selection.Conflicts {
		if !c.ResolutionNeeded {
			continue
		}
		fmt.Fprintf(&b, "Conflict on %s/%s: kept %s (%s), suppressed %s\n",
			c.Scope, c.Key, c.KeptID, c.Reason, strings.Join(c.SuppressedIDs, ", "))
	}

	fmt.Fprintf(&b, "Explanation: %s\n", selection.Meta.Explanation)

	return mcp.NewToolResultText(b.String()), nil
}
