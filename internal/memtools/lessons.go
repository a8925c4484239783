package memtools

import (
	"context"
	"fmt"

	"github.com/HendryAvila/mnemo/internal/memory"
	"github.com/mark3labs/mcp-go/mcp"
)

// LessonsTool handles the mem_lessons MCP tool. Its output is advisory
// by construction: it carries a disclaimer and is never mixed with the
// authoritative fact tier.
type LessonsTool struct {
	reader        *memory.Reader
	minConfidence float64
	maxLessons    int
}

// NewLessonsTool creates a LessonsTool with the given defaults.
func NewLessonsTool(reader *memory.Reader, minConfidence float64, maxLessons int) *LessonsTool {
	return &LessonsTool{reader: reader, minConfidence: minConfidence, maxLessons: maxLessons}
}

// Definition returns the MCP tool definition for mem_lessons.
func (t *LessonsTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_lessons",
		mcp.WithDescription(
			"Retrieve lessons from past episodes relevant to a task. Lessons are suggestions "+
				"learned from experience, not ground truth — for authoritative facts use mem_select_facts.",
		),
		mcp.WithString("task",
			mcp.Required(),
			mcp.Description("What you are about to do, in natural language"),
		),
		mcp.WithNumber("min_confidence",
			mcp.Description("Only lessons at or above this confidence (default: server configured)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max lessons (default: server configured)"),
		),
	)
}

// Handle processes the mem_lessons tool call.
func (t *LessonsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	task := req.GetString("task", "")
	if task == "" {
		return mcp.NewToolResultError("'task' is required"), nil
	}

	minConfidence := floatArg(req, "min_confidence", t.minConfidence)
	limit := intArg(req, "limit", t.maxLessons)

	block, err := t.reader.GetAdvisoryContext(task, minConfidence, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read lessons: %v", err)), nil
	}
	if block == "" {
		return mcp.NewToolResultText("No relevant lessons recorded."), nil
	}

	return mcp.NewToolResultText(block), nil
}
