package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"cocorels-hq/kernel/pkg/assess"
	"cocorels-hq/kernel/pkg/cli"
	"cocorels-hq/kernel/pkg/config"
	"cocorels-hq/kernel/pkg/taxonomy"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration with environment overrides and validate it.

Every invalid field is reported, not only the first. The sub-trait taxonomy
is built and the predicate rules are compiled, so a configuration that
passes here is accepted by the engine.

Examples:
  cocorels validate --config config.yaml
  COCORELS_ROUTER_LOW_COMPLEXITY=9000 cocorels validate -c config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return validateConfig(cfgFile, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(path string, w io.Writer) error {
	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			for _, fe := range verr.Errors {
				fmt.Fprintf(w, "✗ %s\n", fe)
			}
		}
		return cli.NewConfigError(path, err)
	}

	tax, err := taxonomy.FromConfig(cfg)
	if err != nil {
		return cli.NewConfigError(path, err)
	}
	if _, _, err := assess.FromConfig(cfg); err != nil {
		return cli.NewConfigError(path, err)
	}

	fmt.Fprintln(w, "✓ Configuration valid")
	fmt.Fprintf(w, "  sub-traits:   %d\n", tax.Len())
	fmt.Fprintf(w, "  interactions: %d\n", len(cfg.Interactions))
	fmt.Fprintf(w, "  assessor:     %s\n", cfg.Assessor.Type)
	fmt.Fprintf(w, "  audit:        %t (%s)\n", cfg.Audit.Enabled, cfg.Audit.Backend)
	return nil
}
