package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/mnemo/internal/memory"
)

// NewEpisodesCommand creates the episodes command group.
func NewEpisodesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "episodes",
		Short: "Work with the episodic lesson tier",
	}

	cmd.AddCommand(newEpisodesListCommand(rootOpts))
	cmd.AddCommand(newEpisodesCleanupCommand(rootOpts))

	return cmd
}

func newEpisodesListCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		minConfidence float64
		limit         int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored episodes, most confident first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, episodes, db, err := openStores(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			results, err := episodes.Query(memory.EpisodeFilter{
				MinConfidence: minConfidence,
				Limit:         limit,
			})
			if err != nil {
				return err
			}

			if rootOpts.Format == "json" {
				return printJSON(cmd, results)
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no episodes")
				return nil
			}
			for _, e := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  conf=%.2f  %s\n    situation: %s\n",
					e.ID, e.Confidence, e.Lesson, e.Situation)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&minConfidence, "min-confidence", 0, "confidence floor")
	cmd.Flags().IntVar(&limit, "limit", 20, "max episodes")

	return cmd
}

func newEpisodesCleanupCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		days          int
		minConfidence float64
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Prune episodes that are both old and low-confidence",
		Long: `Removes episodes that are BOTH older than --days AND below
--min-confidence. A confident old lesson survives, and so does a
recent shaky one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return fmt.Errorf("--days must be positive, got %d", days)
			}

			_, episodes, db, err := openStores(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			removed, err := episodes.Cleanup(days, minConfidence)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d episodes\n", removed)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 90, "age threshold in days")
	cmd.Flags().Float64Var(&minConfidence, "min-confidence", 0.5, "confidence threshold")

	return cmd
}
