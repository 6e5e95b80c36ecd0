package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nishant946/masset/internal/db"
)

func newMigrateCmd(a *app) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = a.cfg.MigrationsPath
			}
			if err := a.connect(); err != nil {
				return err
			}
			if err := db.RunMigrations(a.database, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied from %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "migrations directory (defaults to MIGRATIONS_PATH)")
	return cmd
}
