// Command reviewchecker serves the PR review-comment dashboard.
package main

import (
	"log/slog"
	"os"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/reviewchecker/internal/config"
	"github.com/ericfisherdev/reviewchecker/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "reviewchecker",
		Short: "A dashboard for working through GitHub pull request review comments",
		Long: `reviewchecker lists your pull requests, flattens their review threads,
and lets you tick off and reply to comments. Check state is kept in a local
SQLite database.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configFile)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", os.Getenv(config.ConfigPathEnv),
		"YAML configuration file (environment variables override it)")

	rootCmd.AddCommand(newServeCmd(&configFile))
	rootCmd.AddCommand(newMigrateCmd(&configFile))

	return rootCmd
}

// loadConfig reads configuration and installs the environment's logger as
// the slog default.
func loadConfig(configFile string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		return nil, nil, err
	}

	log := logger.Setup(cfg.Env, os.Stdout)
	slog.SetDefault(log)

	return cfg, log, nil
}
