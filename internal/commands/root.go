// Package commands defines the runbridge command line.
package commands

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/runbridge/internal/config"
	"github.com/telhawk-systems/runbridge/internal/logging"
)

// Version is reported by --version.
var Version = "0.1.0"

// NewRootCommand builds the runbridge command tree.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "runbridge",
		Short: "Reconcile Airflow runs into asset materialization events",
		Long: `runbridge polls an Airflow deployment for successful DAG runs and turns
them into materialization events for the assets those DAGs and tasks produce.

Tasks that did not run through the downstream orchestrator get synthesized
events, and asset checks targeting materialized assets are requested.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to YAML config file")

	load := func() (*config.Config, error) {
		return config.Load(cfgFile)
	}

	rootCmd.AddCommand(newServeCommand(load))
	rootCmd.AddCommand(newTickCommand(load))
	rootCmd.AddCommand(newCursorCommand(load))
	rootCmd.AddCommand(newMigrateCommand(load))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

type configLoader func() (*config.Config, error)

func newLogger(w io.Writer, cfg *config.Config) *logging.Logger {
	return logging.NewWithWriter(w, logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format).
		With(logging.Service("runbridge"))
}
