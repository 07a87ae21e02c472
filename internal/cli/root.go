// Package cli implements the site-builder command line: the HTTP server and
// the maintenance commands around it.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the top-level command. Running it without a
// subcommand serves the API.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "site-builder",
		Short:        "Site builder backend",
		Long:         "Serves the site editor API and applies editor intents to the database.",
		SilenceUsage: true,
		RunE:         runServe,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newTemplateCmd())
	root.AddCommand(newTokenCmd())

	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
