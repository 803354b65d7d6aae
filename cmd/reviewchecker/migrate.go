package main

import (
	"fmt"

	"github.com/spf13/cobra"

	sqliteadapter "github.com/ericfisherdev/reviewchecker/internal/adapter/driven/sqlite"
)

func newMigrateCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(*configFile)
			if err != nil {
				return err
			}

			db, err := sqliteadapter.NewDB(cmd.Context(), cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := db.Close(); closeErr != nil {
					log.Error("error closing database", "error", closeErr)
				}
			}()

			if err := sqliteadapter.RunMigrations(db.Writer.DB); err != nil {
				return err
			}

			version, dirty, err := sqliteadapter.MigrationVersion(db.Writer.DB)
			if err != nil {
				return err
			}
			log.Info("migrations complete", "path", cfg.DBPath, "version", version, "dirty", dirty)

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return err
		},
	}
}
