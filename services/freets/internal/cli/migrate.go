package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/fritter/services/freets/internal/store"
)

type migrateResult struct {
	Status string `json:"status" yaml:"status"`
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "migrate",
		Short:         "Apply the comments schema",
		Long:          "Apply the embedded schema to the database. Statements are idempotent, so migrate can run on every deploy.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rootOpts.DatabaseURL == "" {
				return NewExitError(ExitCommandError, "migrate needs --database-url or DATABASE_URL")
			}
			b, err := rootOpts.open(cmd.Context(), rootOpts.DatabaseURL)
			if err != nil {
				return WrapExitError(ExitCommandError, "connect", err)
			}
			defer b.Close()
			if b.Pool == nil {
				return NewExitError(ExitCommandError, "migrate needs a Postgres backend")
			}
			if err := store.Migrate(cmd.Context(), b.Pool); err != nil {
				return WrapExitError(ExitFailure, "migrate", err)
			}
			rootOpts.logger().Info("schema applied")
			return writeOutput(cmd.OutOrStdout(), rootOpts.Format, migrateResult{Status: "ok"})
		},
	}
}
