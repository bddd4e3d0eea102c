// Package cmd assembles the artifact-explorer command line.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artifact-explorer/artifact-explorer/cmd/browse"
	"github.com/artifact-explorer/artifact-explorer/cmd/ingest"
	"github.com/artifact-explorer/artifact-explorer/cmd/query"
	"github.com/artifact-explorer/artifact-explorer/cmd/schema"
	"github.com/artifact-explorer/artifact-explorer/cmd/serve"
	"github.com/artifact-explorer/artifact-explorer/internal/conf"
	"github.com/artifact-explorer/artifact-explorer/internal/errors"
	"github.com/artifact-explorer/artifact-explorer/internal/logger"
)

// RootCommand creates the root command. settings is filled in from the
// config file before any subcommand runs.
func RootCommand(settings *conf.Settings) *cobra.Command {
	var (
		configFile string
		debug      bool
	)

	rootCmd := &cobra.Command{
		Use:           "artifact-explorer",
		Short:         "Harvard Art Museums artifact ingestion and query tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config.yaml (default: ./config.yaml or ~/.config/artifact-explorer)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug output")

	rootCmd.AddCommand(
		schema.Command(settings),
		ingest.Command(settings),
		query.Command(settings),
		query.ListCommand(),
		browse.Command(settings),
		serve.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return initialize(settings, configFile, debug)
	}

	return rootCmd
}

// initialize loads the configuration and installs the logger and telemetry.
func initialize(settings *conf.Settings, configFile string, debug bool) error {
	version := settings.Version

	loaded, err := conf.Load(configFile)
	if err != nil {
		return err
	}
	*settings = *loaded
	settings.Version = version

	if debug {
		settings.Debug = true
		settings.Logging.DefaultLevel = "debug"
	}

	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(central)

	if settings.Sentry.Enabled {
		if err := errors.InitSentry(settings.Sentry.DSN, settings.Version); err != nil {
			logger.Global().Module("main").Warn("error telemetry disabled", logger.Error(err))
		}
	}

	return nil
}
