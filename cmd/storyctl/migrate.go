package main

import (
	"fmt"

	"cyoa-server/internal/app"
	"cyoa-server/internal/config"
	"cyoa-server/internal/database"

	"github.com/spf13/cobra"
)

func newMigrateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}

	run := func(action func(m *database.Migrator, cmd *cobra.Command) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			if e.cfg.StorageDriver != config.StoragePostgres {
				return fmt.Errorf("migrations need STORAGE_DRIVER=%s, got %s", config.StoragePostgres, e.cfg.StorageDriver)
			}
			pool, err := app.SetupDatabase(cmd.Context(), e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer pool.Close()
			return action(database.NewMigrator(pool, e.logger), cmd)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: run(func(m *database.Migrator, cmd *cobra.Command) error {
				return m.Up(cmd.Context())
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			Args:  cobra.NoArgs,
			RunE: run(func(m *database.Migrator, cmd *cobra.Command) error {
				return m.Down(cmd.Context())
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: run(func(m *database.Migrator, cmd *cobra.Command) error {
				version, dirty, err := m.Version(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
				return nil
			}),
		},
	)
	return cmd
}
