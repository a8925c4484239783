// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools that depend on them. No business logic
// lives here — only wiring.
package server

import (
	"fmt"

	"github.com/HendryAvila/mnemo/internal/config"
	"github.com/HendryAvila/mnemo/internal/memory"
	"github.com/HendryAvila/mnemo/internal/memtools"
	"github.com/HendryAvila/mnemo/internal/prompts"
	"github.com/HendryAvila/mnemo/internal/resources"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all memory tools
// registered. This is the single place where all dependencies are
// resolved.
//
// The returned cleanup function closes the database connection and must
// be called on shutdown (typically via defer). It is always non-nil and
// safe to call even when initialization failed.
func New(cfg config.Config, logger *zap.Logger) (*server.MCPServer, func(), error) {
	db, err := memory.OpenDB(cfg.DataDir)
	if err != nil {
		return nil, noop, fmt.Errorf("opening memory database: %w", err)
	}
	cleanup := func() {
		if err := db.Close(); err != nil {
			logger.Warn("database close", zap.Error(err))
		}
	}

	facts, err := memory.NewFactStore(db)
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("creating fact store: %w", err)
	}
	episodes, err := memory.NewEpisodeStore(db)
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("creating episode store: %w", err)
	}

	validator := memory.NewValidator(memory.DefaultLessonRules())
	reader := memory.NewReader(episodes)
	selectorCfg := memory.SelectorConfig{
		MinConfidence: cfg.Selection.MinConfidence,
		MaxFacts:      cfg.Selection.MaxFacts,
	}

	s := server.NewMCPServer(
		"mnemo",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Fact tier (authoritative) ---

	saveFact := memtools.NewSaveFactTool(facts)
	s.AddTool(saveFact.Definition(), saveFact.Handle)

	queryFacts := memtools.NewQueryFactsTool(facts)
	s.AddTool(queryFacts.Definition(), queryFacts.Handle)

	selectFacts := memtools.NewSelectFactsTool(facts, selectorCfg)
	s.AddTool(selectFacts.Definition(), selectFacts.Handle)

	deleteFact := memtools.NewDeleteFactTool(facts)
	s.AddTool(deleteFact.Definition(), deleteFact.Handle)

	audit := memtools.NewAuditTool(facts)
	s.AddTool(audit.Definition(), audit.Handle)

	// --- Episode tier (advisory) ---

	saveEpisode := memtools.NewSaveEpisodeTool(validator, episodes)
	s.AddTool(saveEpisode.Definition(), saveEpisode.Handle)

	lessons := memtools.NewLessonsTool(reader, cfg.Episodes.MinConfidence, cfg.Episodes.MaxLessons)
	s.AddTool(lessons.Definition(), lessons.Handle)

	cleanupEpisodes := memtools.NewCleanupEpisodesTool(episodes, cfg.Episodes.CleanupDays, cfg.Episodes.CleanupMinConfidence)
	s.AddTool(cleanupEpisodes.Definition(), cleanupEpisodes.Handle)

	// --- Cross-tier ---

	stats := memtools.NewStatsTool(facts, episodes)
	s.AddTool(stats.Definition(), stats.Handle)

	// --- Prompts ---

	recall := prompts.NewRecallPrompt()
	s.AddPrompt(recall.Definition(), recall.Handle)

	checkpoint := prompts.NewCheckpointPrompt()
	s.AddPrompt(checkpoint.Definition(), checkpoint.Handle)

	// --- Resources ---

	resourceHandler := resources.NewHandler(facts, episodes)
	s.AddResource(resourceHandler.StatsResource(), resourceHandler.HandleStats)

	logger.Info("memory server wired",
		zap.String("data_dir", cfg.DataDir),
		zap.Int("max_facts", selectorCfg.MaxFacts),
	)

	return s, cleanup, nil
}

// noop is the default cleanup when initialization failed before the
// database was opened.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use the memory substrate effectively.
func serverInstructions() string {
	return `You have access to mnemo, a persistent memory server with two tiers.

## The two tiers

**Facts** (symbolic tier) are authoritative: discrete key-value entries like
"editor.theme = dark" or "api.style = rest". One value per (scope, key).
Treat selected facts as ground truth.

**Episodes** (episodic tier) are advisory: lessons learned from past tasks,
like "prefer batched writes when bulk operations hit timeouts". Treat them
as suggestions to weigh, never as facts. The two tiers are never merged —
lesson output always carries a disclaimer.

## Saving facts (mem_save_fact)

Save a fact whenever you learn something durable and discrete:
- User preferences: coding style, formatting, tooling choices
- Project constraints: supported platforms, pinned versions, API contracts
- Decisions made: chosen architecture, naming conventions
- Plain facts: repository layout, environment details

Pick the right scope:
- session: true only for the current conversation
- project: true for this repository or codebase
- user: true for this person across projects
- org: true organization-wide

Set confidence honestly. A fact the user stated outright deserves 0.9+;
something you inferred deserves less. Saving over an existing (scope, key)
replaces the value only when your confidence is STRICTLY higher — a
lower-confidence write is ignored and the tool tells you so.

## Retrieving facts

Use mem_select_facts when assembling context for a task: it orders by scope
priority (session > project > user > org) and confidence, filters by what
the request is for (coding, debugging, planning, output_format), resolves
conflicting values, and explains its choices. Use mem_query_facts only for
raw listing and inspection.

## Recording lessons (mem_save_episode)

After a task with a transferable takeaway, record an episode: situation,
action, outcome, lesson. The lesson must GENERALIZE — "prefer X when Y",
not "this project uses postgres". Fact-shaped lessons are rejected; store
those with mem_save_fact instead. Lessons below the confidence floor are
quietly discarded.

## Using lessons (mem_lessons)

Before starting non-trivial work, call mem_lessons with a description of
the task. Weigh the returned lessons against the current situation — they
are heuristics from past experience, not rules.

## Maintenance

- mem_fact_audit shows the append-only history of fact changes
- mem_delete_fact removes a fact (the audit trail keeps the record)
- mem_cleanup_episodes prunes lessons that are BOTH old AND low-confidence
- mem_stats summarizes both tiers`
}
