package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"cocorels-hq/kernel/pkg/cli"
	"cocorels-hq/kernel/pkg/containment"
)

var checkFlags struct {
	action  string
	context string
	source  string
	format  string
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a containment check on one action",
	Long: `Run a containment check on one action.

The action is always scored on the slow path and compared against the
autonomy limit and the safety corridor thresholds. The command exits with
status 3 when the action is denied.

Examples:
  cocorels check --action "disable the audit log" --source agent-7
  cocorels check --action "summarise the ticket" --format json`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&checkFlags.action, "action", "a", "", "action description")
	checkCmd.Flags().StringVar(&checkFlags.context, "context", "", "action context as a JSON object")
	checkCmd.Flags().StringVar(&checkFlags.source, "source", "cli", "identifier of the system proposing the action")
	checkCmd.Flags().StringVarP(&checkFlags.format, "format", "f", "text", "output format: text, json")
}

func runCheck(cmd *cobra.Command, args []string) error {
	a, err := actionFromFlags(checkFlags.action, checkFlags.context)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if _, err := setupLogging(cfg); err != nil {
		return err
	}

	k, err := newKernel(cfg)
	if err != nil {
		return err
	}
	defer k.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	req := containment.Request{Action: a, Source: checkFlags.source}
	return checkOnce(ctx, k, req, cmd.OutOrStdout(), cli.OutputFormat(checkFlags.format))
}

// checkOnce prints the decision and returns cli.ErrDenied when the action
// is not allowed.
func checkOnce(ctx context.Context, k *kernel, req containment.Request, w io.Writer, format cli.OutputFormat) error {
	if format == cli.FormatCSV {
		return fmt.Errorf("csv output is not supported for check")
	}
	formatter, err := cli.NewFormatter(format)
	if err != nil {
		return err
	}

	d := k.shield.Check(ctx, req)

	if format == cli.FormatJSON {
		err = formatter.FormatTo(w, d)
	} else {
		fmt.Fprintf(w, "Result:   %s\n", d.Result)
		fmt.Fprintf(w, "Momentum: %.4f\n", d.Momentum)
		if d.Lockdown {
			fmt.Fprintln(w, "Lockdown: active")
		}
		if d.Enforcer != "" {
			fmt.Fprintf(w, "Enforcer: %s\n", d.Enforcer)
		}
		if len(d.Violations) > 0 {
			fmt.Fprintln(w)
			err = formatter.FormatTo(w, violationTable(d.Violations))
		}
	}
	if err != nil {
		return err
	}

	if !d.Allowed() {
		return fmt.Errorf("%s: %w", d.Result, cli.ErrDenied)
	}
	return nil
}

type violationTable []containment.Violation

func (t violationTable) Header() []string {
	return []string{"CRITERION", "SCORE", "LIMIT"}
}

func (t violationTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, v := range t {
		rows = append(rows, []string{
			v.Criterion.String(),
			strconv.FormatFloat(v.Score, 'f', 4, 64),
			strconv.FormatFloat(v.Limit, 'f', 4, 64),
		})
	}
	return rows
}
