package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"cocorels-hq/kernel/pkg/action"
	"cocorels-hq/kernel/pkg/cli"
	"cocorels-hq/kernel/pkg/config"
	"cocorels-hq/kernel/pkg/criterion"
	"cocorels-hq/kernel/pkg/report"
	"cocorels-hq/kernel/pkg/server"
)

var evaluateFlags struct {
	action     string
	context    string
	input      string
	criterion  string
	hash       string
	complexity int
	forceSlow  bool
	budget     time.Duration
	format     string
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score one action",
	Long: `Score one action and print the evaluation report.

The action is given with --action and --context, or as a request body (the
same JSON accepted by POST /v1/evaluate) with --input. Use --input - to read
the body from stdin.

Examples:
  # Fast path (low complexity)
  cocorels evaluate --action "reply to the user politely"

  # Slow path with a 200ms budget
  cocorels evaluate --action "share the patient record" \
    --context '{"violates_privacy": true}' --complexity 8000 --budget 200ms

  # Read the request body from a file
  cocorels evaluate --input request.json --format json`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVarP(&evaluateFlags.action, "action", "a", "", "action description")
	evaluateCmd.Flags().StringVar(&evaluateFlags.context, "context", "", "action context as a JSON object")
	evaluateCmd.Flags().StringVarP(&evaluateFlags.input, "input", "i", "", "request body file (- for stdin)")
	evaluateCmd.Flags().StringVar(&evaluateFlags.criterion, "criterion", "", "criterion name used as the routing hint (e.g. HONR)")
	evaluateCmd.Flags().StringVar(&evaluateFlags.hash, "dilemma-hash", "", "dilemma hash in hex (derived from the action when empty)")
	evaluateCmd.Flags().IntVar(&evaluateFlags.complexity, "complexity", 0, "dilemma complexity (0..30000)")
	evaluateCmd.Flags().BoolVar(&evaluateFlags.forceSlow, "force-slow", false, "always take the slow path")
	evaluateCmd.Flags().DurationVar(&evaluateFlags.budget, "budget", config.DefaultHardCap, "time budget; below router.min_slow_path_budget the fast path is used")
	evaluateCmd.Flags().StringVarP(&evaluateFlags.format, "format", "f", "text", "output format: text, json")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	body, err := evaluateBody(cmd.InOrStdin())
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

	return evaluateOnce(cmd.Context(), k, body, cmd.OutOrStdout(), cli.OutputFormat(evaluateFlags.format))
}

// evaluateBody builds the request body from --input or the action flags.
func evaluateBody(stdin io.Reader) (server.EvaluateRequest, error) {
	var body server.EvaluateRequest

	if evaluateFlags.input != "" {
		r := stdin
		if evaluateFlags.input != "-" {
			f, err := os.Open(evaluateFlags.input)
			if err != nil {
				return body, fmt.Errorf("failed to open request body: %w", err)
			}
			defer f.Close()
			r = f
		}
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&body); err != nil {
			return body, fmt.Errorf("invalid request body: %w", err)
		}
		return body, nil
	}

	a, err := actionFromFlags(evaluateFlags.action, evaluateFlags.context)
	if err != nil {
		return body, err
	}
	body.Action = a
	body.Criterion = evaluateFlags.criterion
	body.DilemmaHash = evaluateFlags.hash
	body.Complexity = evaluateFlags.complexity
	body.ForceSlow = evaluateFlags.forceSlow
	body.TimeBudgetMS = evaluateFlags.budget.Milliseconds()
	return body, nil
}

func actionFromFlags(description, rawContext string) (action.Action, error) {
	if description == "" {
		return action.Action{}, fmt.Errorf("--action is required")
	}

	var ctx map[string]any
	if rawContext != "" {
		if err := json.Unmarshal([]byte(rawContext), &ctx); err != nil {
			return action.Action{}, fmt.Errorf("--context must be a JSON object: %w", err)
		}
	}
	return action.New(description, ctx), nil
}

func evaluateOnce(ctx context.Context, k *kernel, body server.EvaluateRequest, w io.Writer, format cli.OutputFormat) error {
	if format == cli.FormatCSV {
		return fmt.Errorf("csv output is not supported for evaluate")
	}
	formatter, err := cli.NewFormatter(format)
	if err != nil {
		return err
	}

	req, err := body.ToRequest()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rep := k.engine.Evaluate(ctx, req)

	if format == cli.FormatJSON {
		return formatter.FormatTo(w, rep)
	}
	fmt.Fprintf(w, "Evaluation %s\n", rep.ID)
	fmt.Fprintf(w, "Path:     %s (%s)\n", rep.Path, rep.RouteReason)
	fmt.Fprintf(w, "State:    %s\n", rep.State)
	if rep.FallbackReason != "" {
		fmt.Fprintf(w, "Fallback: %s\n", rep.FallbackReason)
	}
	fmt.Fprintf(w, "MCDA:     %.4f (balance %.4f)\n", rep.MCDA, rep.Balance)
	fmt.Fprintf(w, "Momentum: %.4f\n", rep.MomentumAfter)
	if len(rep.Conflicts) > 0 {
		fmt.Fprintf(w, "Conflicts resolved: %d\n", len(rep.Conflicts))
	}
	fmt.Fprintln(w)
	return formatter.FormatTo(w, scoreTable{rep})
}

// scoreTable lists a report's criteria in canonical order.
type scoreTable struct {
	rep *report.Report
}

func (t scoreTable) Header() []string {
	return []string{"CRITERION", "SCORE", "DEFAULTED", "JUSTIFICATION"}
}

func (t scoreTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.rep.Evaluations))
	for _, c := range criterion.All() {
		e, ok := t.rep.Evaluations[c]
		if !ok {
			continue
		}
		rows = append(rows, []string{
			c.String(),
			strconv.FormatFloat(e.Score, 'f', 4, 64),
			strconv.FormatBool(e.Defaulted),
			e.Justification,
		})
	}
	return rows
}
