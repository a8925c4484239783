package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/mnemo/internal/memory"
)

// NewFactsCommand creates the facts command group.
func NewFactsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "facts",
		Short: "Work with the symbolic fact tier",
	}

	cmd.AddCommand(newFactsListCommand(rootOpts))
	cmd.AddCommand(newFactsSelectCommand(rootOpts))
	cmd.AddCommand(newFactsAuditCommand(rootOpts))
	cmd.AddCommand(newFactsDeleteCommand(rootOpts))

	return cmd
}

func newFactsListCommand(rootOpts *RootOptions) *cobra.Command {
	var filter memory.FactFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List facts matching the given filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			facts, _, db, err := openStores(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			results, err := facts.Query(filter)
			if err != nil {
				return err
			}

			if rootOpts.Format == "json" {
				return printJSON(cmd, results)
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no facts")
				return nil
			}
			for _, f := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s/%s (%s) = %s  conf=%.2f src=%s\n",
					f.ID, f.Scope, f.Key, f.Category, f.Value.JSON(), f.Confidence, f.Source)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.Scope, "scope", "", "filter by scope")
	cmd.Flags().StringVar(&filter.Category, "category", "", "filter by category")
	cmd.Flags().StringVar(&filter.Key, "key", "", "exact key match")
	cmd.Flags().StringVar(&filter.KeyPattern, "key-pattern", "", "SQL LIKE pattern for keys")
	cmd.Flags().Float64Var(&filter.MinConfidence, "min-confidence", 0, "confidence floor")
	cmd.Flags().StringVar(&filter.Source, "source", "", "filter by source")

	return cmd
}

func newFactsSelectCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		scopes          string
		requestCategory string
		maxFacts        int
		minConfidence   float64
		allowConflicts  bool
	)

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Run the selection pipeline and show the chosen facts",
		Long: `Runs the same selection the server uses for prompt assembly: scope
priority ordering, category relevance, confidence filtering and
conflict resolution. The explanation shows why each step kept what
it kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			facts, _, db, err := openStores(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			selector := memory.NewSelector(facts, memory.SelectorConfig{
				MinConfidence: minConfidence,
				MaxFacts:      maxFacts,
			})

			var scopeList []string
			for _, s := range strings.Split(scopes, ",") {
				if s = strings.TrimSpace(s); s != "" {
					scopeList = append(scopeList, s)
				}
			}

			selection, err := selector.Select(memory.SelectionRequest{
				Scopes:          scopeList,
				RequestCategory: requestCategory,
				AllowConflicts:  allowConflicts,
			})
			if err != nil {
				return err
			}

			if rootOpts.Format == "json" {
				return printJSON(cmd, selection)
			}
			for i, f := range selection.Facts {
				fmt.Fprintf(cmd.OutOrStdout(), "[%d] %s/%s (%s) = %s  conf=%.2f\n",
					i+1, f.Scope, f.Key, f.Category, f.Value.JSON(), f.Confidence)
			}
			for _, c := range selection.Conflicts {
				if c.ResolutionNeeded {
					fmt.Fprintf(cmd.OutOrStdout(), "conflict %s/%s: kept %s\n", c.Scope, c.Key, c.KeptID)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", selection.Meta.Explanation)
			return nil
		},
	}

	cmd.Flags().StringVar(&scopes, "scopes", "", "comma-separated scopes (default: all)")
	cmd.Flags().StringVar(&requestCategory, "request-category", "", "coding, debugging, planning or output_format")
	cmd.Flags().IntVar(&maxFacts, "max", 10, "cap on selected facts")
	cmd.Flags().Float64Var(&minConfidence, "min-confidence", 0.3, "confidence floor")
	cmd.Flags().BoolVar(&allowConflicts, "allow-conflicts", false, "keep conflicting facts instead of resolving")

	return cmd
}

func newFactsAuditCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		factID string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the fact audit trail, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			facts, _, db, err := openStores(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			records, err := facts.AuditLog(factID, limit)
			if err != nil {
				return err
			}

			if rootOpts.Format == "json" {
				return printJSON(cmd, records)
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "audit log is empty")
				return nil
			}
			for _, r := range records {
				line := fmt.Sprintf("%s  %-6s  fact=%s  by=%s", r.ChangedAt, r.Operation, r.FactID, r.ChangedBy)
				if r.OldValue != nil {
					line += "  old=" + *r.OldValue
				}
				if r.NewValue != nil {
					line += "  new=" + *r.NewValue
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&factID, "id", "", "restrict to one fact")
	cmd.Flags().IntVar(&limit, "limit", 20, "max entries")

	return cmd
}

func newFactsDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <fact-id>",
		Short: "Delete a fact by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			facts, _, db, err := openStores(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			deleted, err := facts.Delete(args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("no fact with ID %s", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

// printJSON writes v as indented JSON to the command's stdout.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
