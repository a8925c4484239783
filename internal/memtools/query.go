package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/mnemo/internal/memory"
	"github.com/mark3labs/mcp-go/mcp"
)

// QueryFactsTool handles the mem_query_facts MCP tool.
type QueryFactsTool struct {
	facts *memory.FactStore
}

// NewQueryFactsTool creates a QueryFactsTool.
func NewQueryFactsTool(facts *memory.FactStore) *QueryFactsTool {
	return &QueryFactsTool{facts: facts}
}

// Definition returns the MCP tool definition for mem_query_facts.
func (t *QueryFactsTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_query_facts",
		mcp.WithDescription(
			"List stored facts matching a set of filters. All filters are optional and combine with AND. "+
				"For assembling prompt context prefer mem_select_facts, which also resolves conflicts.",
		),
		mcp.WithString("scope",
			mcp.Description("Filter by scope: session, project, user or org"),
		),
		mcp.WithString("category",
			mcp.Description("Filter by category: preference, constraint, decision or fact"),
		),
		mcp.WithString("key",
			mcp.Description("Exact key match"),
		),
		mcp.WithString("key_pattern",
			mcp.Description("SQL LIKE pattern for keys (e.g. 'editor.%')"),
		),
		mcp.WithNumber("min_confidence",
			mcp.Description("Only facts at or above this confidence"),
		),
		mcp.WithString("source",
			mcp.Description("Filter by source: user, agent or tool"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results to display (default: 20)"),
		),
	)
}

// Handle processes the mem_query_facts tool call.
func (t *QueryFactsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	facts, err := t.facts.Query(memory.FactFilter{
		Scope:         req.GetString("scope", ""),
		Category:      req.GetString("category", ""),
		Key:           req.GetString("key", ""),
		KeyPattern:    req.GetString("key_pattern", ""),
		MinConfidence: floatArg(req, "min_confidence", 0),
		Source:        req.GetString("source", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}

	if len(facts) == 0 {
		return mcp.NewToolResultText("No facts match the given filters."), nil
	}

	limit := intArg(req, "limit", 20)
	shown := facts
	if len(shown) > limit {
		shown = shown[:limit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d facts (showing %d):\n\n", len(facts), len(shown))
	for i, f := range shown {
		fmt.Fprintf(&b, "[%d] %s/%s (%s) = %s\n    confidence %.2f | source %s | updated %s\n    id %s\n\n",
			i+1, f.Scope, f.Key, f.Category, f.Value.JSON(),
			f.Confidence, f.Source, f.UpdatedAt, f.ID,
		)
	}

	return mcp.NewToolResultText(b.String()), nil
}

// ─── AuditTool ───────────────────────────────────────────────────────────────

// AuditTool handles the mem_fact_audit MCP tool.
type AuditTool struct {
	facts *memory.FactStore
}

// NewAuditTool creates an AuditTool.
func NewAuditTool(facts *memory.FactStore) *AuditTool {
	return &AuditTool{facts: facts}
}

// Definition returns the MCP tool definition for mem_fact_audit.
func (t *AuditTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_fact_audit",
		mcp.WithDescription(
			"Show the append-only audit trail of fact changes, most recent first. "+
				"Pass fact_id to follow one fact's history.",
		),
		mcp.WithString("fact_id",
			mcp.Description("Restrict the trail to one fact"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max entries (default: 20)"),
		),
	)
}

// Handle processes the mem_fact_audit tool call.
func (t *AuditTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	factID := req.GetString("fact_id", "")
	limit := intArg(req, "limit", 20)

	records, err := t.facts.AuditLog(factID, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read audit log: %v", err)), nil
	}

	if len(records) == 0 {
		return mcp.NewToolResultText("Audit log is empty."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d audit entries (most recent first):\n\n", len(records))
	for _, r := range records {
		fmt.Fprintf(&b, "[%s] %s fact %s by %s\n", r.ChangedAt, r.Operation, r.FactID, r.ChangedBy)
		if r.OldValue != nil {
			fmt.Fprintf(&b, "    old: %s\n", *r.OldValue)
		}
		if r.NewValue != nil {
			fmt.Fprintf(&b, "    new: %s\n", *r.NewValue)
		}
		b.WriteString("\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}
