package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"cocorels-hq/kernel/pkg/cli"
	"cocorels-hq/kernel/pkg/config"
	"cocorels-hq/kernel/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "cocorels",
	Short: "CoCorels - ethical scoring kernel",
	Long: `CoCorels scores proposed actions against twelve ethical criteria.

Calls are routed to a fast path (a deterministic keyword heuristic) or a
slow path (sub-trait assessment, conflict resolution and aggregation) that
runs on a bounded worker pool under a hard deadline. Slow-path results are
signed and written to the audit trail.

Exit codes:
  0  success
  1  command failed
  2  invalid configuration
  3  containment check denied the action`,
	Version:      Version,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (built-in defaults when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads cfgFile with environment overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	return cfg, nil
}

// setupLogging installs the configured logger as the slog default. It must
// run before components are built: they capture the default at construction.
func setupLogging(cfg *config.Config) (*slog.Logger, error) {
	lc := logging.FromConfig(cfg.Telemetry.Logging)
	if verbose {
		lc.Level = "debug"
	}

	logger, err := logging.New(lc)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	slog.SetDefault(logger)
	return logger, nil
}
