package memtools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/HendryAvila/mnemo/internal/memory"
	"github.com/mark3labs/mcp-go/mcp"
)

// StatsTool handles the mem_stats MCP tool.
type StatsTool struct {
	facts    *memory.FactStore
	episodes *memory.EpisodeStore
}

// NewStatsTool creates a StatsTool over both tiers.
func NewStatsTool(facts *memory.FactStore, episodes *memory.EpisodeStore) *StatsTool {
	return &StatsTool{facts: facts, episodes: episodes}
}

// Definition returns the MCP tool definition for mem_stats.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_stats",
		mcp.WithDescription(
			"Show memory statistics for both tiers — fact counts by scope and category, episode counts and confidence averages.",
		),
	)
}

// Handle processes the mem_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	factStats, err := t.facts.Stats()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get fact stats: %v", err)), nil
	}
	episodeStats, err := t.episodes.Stats()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get episode stats: %v", err)), nil
	}

	var b strings.Builder
	b.WriteString("## Memory Statistics\n\n")
	b.WriteString("### Facts (authoritative)\n")
	fmt.Fprintf(&b, "- **Total**: %d\n", factStats.TotalFacts)
	fmt.Fprintf(&b, "- **Avg confidence**: %.2f\n", factStats.AvgConfidence)
	if len(factStats.ByScope) > 0 {
		fmt.Fprintf(&b, "- **By scope**: %s\n", countLine(factStats.ByScope))
	}
	if len(factStats.ByCategory) > 0 {
		fmt.Fprintf(&b, "- **By category**: %s\n", countLine(factStats.ByCategory))
	}

	b.WriteString("\n### Episodes (advisory)\n")
	fmt.Fprintf(&b, "- **Total**: %d\n", episodeStats.TotalEpisodes)
	fmt.Fprintf(&b, "- **Avg confidence**: %.2f\n", episodeStats.AvgConfidence)
	if episodeStats.OldestCreated != "" {
		fmt.Fprintf(&b, "- **Oldest**: %s\n", episodeStats.OldestCreated)
		fmt.Fprintf(&b, "- **Newest**: %s\n", episodeStats.NewestCreated)
	}

	return mcp.NewToolResultText(b.String()), nil
}

// countLine renders a count map as "a: 1, b: 2" in key order.
func countLine(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %d", k, counts[k])
	}
	return strings.Join(parts, ", ")
}
