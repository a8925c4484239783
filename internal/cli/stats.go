package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show statistics for both memory tiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			facts, episodes, db, err := openStores(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			factStats, err := facts.Stats()
			if err != nil {
				return err
			}
			episodeStats, err := episodes.Stats()
			if err != nil {
				return err
			}

			if rootOpts.Format == "json" {
				return printJSON(cmd, map[string]any{
					"facts":    factStats,
					"episodes": episodeStats,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "facts: %d (avg confidence %.2f)\n", factStats.TotalFacts, factStats.AvgConfidence)
			for _, scope := range sortedCountKeys(factStats.ByScope) {
				fmt.Fprintf(out, "  %s: %d\n", scope, factStats.ByScope[scope])
			}
			fmt.Fprintf(out, "episodes: %d (avg confidence %.2f)\n", episodeStats.TotalEpisodes, episodeStats.AvgConfidence)
			if episodeStats.OldestCreated != "" {
				fmt.Fprintf(out, "  oldest: %s\n  newest: %s\n", episodeStats.OldestCreated, episodeStats.NewestCreated)
			}
			return nil
		},
	}
}

func sortedCountKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
