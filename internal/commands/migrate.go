package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/runbridge/internal/repository"
)

func newMigrateCommand(load configLoader) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations for the postgres run store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if err := repository.Migrate(cfg.Database.Postgres.ConnectionString(), source); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "path", "file://migrations", "migration source URL")
	return cmd
}
