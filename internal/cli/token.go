package cli

import (
	"fmt"
	"time"

	"site-builder/config"
	"site-builder/internal/app/http/middleware"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newTokenCmd() *cobra.Command {
	var (
		userID uint
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed API token for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			v := viper.New()
			v.AutomaticEnv()
			config.JWT_SECRET = v.GetString("JWT_SECRET")
			if config.JWT_SECRET == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			if userID == 0 {
				return fmt.Errorf("--user is required")
			}

			tok, err := middleware.IssueToken(userID, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().UintVar(&userID, "user", 0, "user id to put in the token")
	cmd.Flags().StringVar(&role, "role", "", "optional role claim, e.g. admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
