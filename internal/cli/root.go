// Package cli implements the mnemoctl command tree for inspecting and
// maintaining a memory database outside the MCP server.
package cli

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/mnemo/internal/config"
	"github.com/HendryAvila/mnemo/internal/memory"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	DataDir    string // overrides the configured data dir when set
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the mnemoctl CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "mnemoctl",
		Short: "Inspect and maintain a mnemo memory database",
		Long: `mnemoctl operates directly on the memory database used by the mnemo
MCP server: list and select facts, follow the audit trail, and prune
stale episodes. The server does not need to be running.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default: ~/.mnemo/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "override the configured data directory")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewFactsCommand(opts))
	cmd.AddCommand(NewEpisodesCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// openStores loads the config and opens both tiers. The caller must
// close the returned database.
func openStores(opts *RootOptions) (*memory.FactStore, *memory.EpisodeStore, *sql.DB, error) {
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, nil, err
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}

	db, err := memory.OpenDB(cfg.DataDir)
	if err != nil {
		return nil, nil, nil, err
	}
	facts, err := memory.NewFactStore(db)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	episodes, err := memory.NewEpisodeStore(db)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	return facts, episodes, db, nil
}
