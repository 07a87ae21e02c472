package cli

import (
	"fmt"
	"os"

	"site-builder/config"
	"site-builder/database"
	"site-builder/internal/gateway"
	"site-builder/internal/logging"

	"github.com/spf13/cobra"
)

func newTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage site templates",
	}
	cmd.AddCommand(newTemplateImportCmd())
	return cmd
}

func newTemplateImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import a site template from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			spec, err := gateway.ParseTemplate(f)
			if err != nil {
				return err
			}

			config.LoadDB()
			logging.Setup(config.LOG_LEVEL)

			db, err := database.Open(config.DB_DRIVER, config.DB_URL)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			tmpl, err := gateway.New(db).ImportTemplate(cmd.Context(), spec)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported template %s (%s)\n", tmpl.Slug, tmpl.ID)
			return nil
		},
	}
}
