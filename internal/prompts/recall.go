// Package prompts implements MCP prompt handlers for the memory server.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// RecallPrompt handles the mem-recall MCP prompt.
// It guides the AI to load relevant memory at the start of a task.
type RecallPrompt struct{}

// NewRecallPrompt creates a RecallPrompt.
func NewRecallPrompt() *RecallPrompt {
	return &RecallPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *RecallPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("mem-recall",
		mcp.WithPromptDescription(
			"Load relevant memory before starting a task: selects authoritative "+
				"facts and surfaces advisory lessons from past episodes.",
		),
		mcp.WithArgument("task",
			mcp.ArgumentDescription("What you are about to work on"),
		),
		mcp.WithArgument("request_category",
			mcp.ArgumentDescription("What the context is for: coding, debugging, planning or output_format"),
		),
	)
}

// Handle processes the mem-recall prompt request.
func (p *RecallPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	task := "the upcoming task"
	if args := req.Params.Arguments; args != nil {
		if t, ok := args["task"]; ok && t != "" {
			task = t
		}
	}

	category := ""
	if args := req.Params.Arguments; args != nil {
		category = args["request_category"]
	}

	categoryArg := ""
	if category != "" {
		categoryArg = fmt.Sprintf(" with request_category='%s'", category)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Recall memory for: %s", task),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I'm about to work on: %s\n\n"+
						"Please:\n"+
						"1. Run `mem_select_facts`%s to load the authoritative facts\n"+
						"2. Run `mem_lessons` with task='%s' to surface relevant lessons\n"+
						"3. Summarize what you now know: facts as ground truth, lessons as suggestions\n"+
						"4. Flag anything that looks stale or contradicts what I just told you",
					task, categoryArg, task,
				)),
			},
		},
	}, nil
}
