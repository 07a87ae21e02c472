package cli

import (
	"fmt"

	"site-builder/config"
	"site-builder/database"
	"site-builder/internal/logging"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			config.LoadDB()
			logging.Setup(config.LOG_LEVEL)

			db, err := database.Open(config.DB_DRIVER, config.DB_URL)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}
