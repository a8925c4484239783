package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// CheckpointPrompt handles the mem-checkpoint MCP prompt.
// It instructs the AI to persist what was learned in the session.
type CheckpointPrompt struct{}

// NewCheckpointPrompt creates a CheckpointPrompt.
func NewCheckpointPrompt() *CheckpointPrompt {
	return &CheckpointPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *CheckpointPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("mem-checkpoint",
		mcp.WithPromptDescription(
			"Persist what this session learned: durable facts into the symbolic "+
				"tier, transferable lessons into the episodic tier.",
		),
	)
}

// Handle processes the mem-checkpoint prompt request.
func (p *CheckpointPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Checkpoint session memory",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please review this session and persist what's worth keeping:\n\n" +
						"1. For each durable, discrete thing learned (preferences, constraints, decisions, facts),\n" +
						"   run `mem_save_fact` with the right scope and an honest confidence\n" +
						"2. For each transferable takeaway, run `mem_save_episode` — the lesson must\n" +
						"   generalize ('prefer X when Y'), not restate a project fact\n" +
						"3. List what you saved and what you deliberately skipped, and why",
				),
			},
		},
	}, nil
}
