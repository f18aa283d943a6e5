package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"cocorels-hq/kernel/pkg/cli"
	"cocorels-hq/kernel/pkg/config"
	"cocorels-hq/kernel/pkg/routing"
	"cocorels-hq/kernel/pkg/server"
	"cocorels-hq/kernel/pkg/telemetry/health"
	"cocorels-hq/kernel/pkg/telemetry/tracing"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the kernel HTTP server",
	Long: `Start the kernel HTTP server with the specified configuration.

The server exposes evaluation, momentum and containment routes along with
health, readiness, version and Prometheus metrics endpoints. When
router.watch is set, edits to the router section of the config file are
applied without a restart.

Examples:
  # Start with built-in defaults
  cocorels run

  # Start with a config file
  cocorels run --config /etc/cocorels/config.yaml

  # Override listen address
  cocorels run --listen 0.0.0.0:8090

  # Validate config without starting the server
  cocorels run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError(cfgFile, err)
	}
	cfg := config.GetConfig()

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	k, err := newKernel(cfg)
	if err != nil {
		return err
	}
	defer k.Close()
	fmt.Fprintf(out, "✓ Engine initialized (%d sub-traits, %d workers)\n", k.engine.Taxonomy().Len(), cfg.Evaluation.Workers)

	if k.recorder != nil {
		k.startRetention(ctx)
		fmt.Fprintf(out, "✓ Audit trail initialized (%s)\n", cfg.Audit.Backend)
	}

	tracer, err := tracing.New(ctx, &cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer tracer.Shutdown(context.Background())

	if cfg.Router.Watch && cfgFile != "" {
		watcher, err := config.NewWatcher(cfgFile, logger)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		defer watcher.Stop()

		go func() {
			err := watcher.Watch(ctx, func(rc config.RouterConfig) {
				k.engine.Router().SetThresholds(routing.ThresholdsFromConfig(rc))
			})
			if err != nil {
				slog.Error("config watcher stopped", "error", err)
			}
		}()
	}

	checker := health.New(0)
	k.registerChecks(checker)

	srv := server.New(&cfg.Server, server.Dependencies{
		Engine:      k.engine,
		Shield:      k.shield,
		Health:      checker,
		Metrics:     k.collector.Handler(),
		MetricsPath: cfg.Telemetry.Metrics.Path,
		Tracer:      tracer,
		Version:     Version,
		Commit:      GitCommit,
		BuildTime:   BuildDate,
	})

	fmt.Fprintf(out, "✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}
