package cli

import (
	"github.com/spf13/cobra"

	"github.com/modelseed/kbutil/internal/infrastructure/database/postgres"
)

func newMigrateCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the curation database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				tk, err := root.bootstrap()
				if err != nil {
					return err
				}
				return postgres.RunMigrations(postgres.DSN(tk.cfg.Database), tk.cfg.Database.MigrationPath)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				tk, err := root.bootstrap()
				if err != nil {
					return err
				}
				return postgres.RollbackMigrations(postgres.DSN(tk.cfg.Database), tk.cfg.Database.MigrationPath, 1)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				tk, err := root.bootstrap()
				if err != nil {
					return err
				}
				version, dirty, err := postgres.MigrationVersion(postgres.DSN(tk.cfg.Database), tk.cfg.Database.MigrationPath)
				if err != nil {
					return err
				}
				return printJSON(map[string]interface{}{"version": version, "dirty": dirty})
			},
		},
	)
	return cmd
}
