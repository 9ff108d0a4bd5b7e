package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/apijudge/internal/database"
)

func newDBCommand() *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Result history database commands",
	}

	dbCmd.AddCommand(newDBMigrateCommand())

	return dbCmd
}

func newDBMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := database.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("database.Open() > %w", err)
			}
			defer func() {
				_ = db.Close()
			}()

			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("database.Migrate() > %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
			return err
		},
	}
}
