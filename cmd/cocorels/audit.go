package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cocorels-hq/kernel/pkg/audit"
	"cocorels-hq/kernel/pkg/audit/export"
	"cocorels-hq/kernel/pkg/audit/query"
	"cocorels-hq/kernel/pkg/audit/signing"
	"cocorels-hq/kernel/pkg/audit/storage"
	"cocorels-hq/kernel/pkg/cli"
)

var auditFlags struct {
	backend      string
	timeRange    string
	evaluationID string
	dilemmaHash  string
	path         string
	state        string
	deferred     string
	maxMCDA      float64
	limit        int
	offset       int
	sortBy       string
	sortOrder    string
	format       string
	output       string
	keyFile      string
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query, verify and export the audit trail",
	Long: `Query, verify and export signed audit records.

Every slow-path, deferred and fallback report is written to the audit trail
as a record signed over its content hash.

Subcommands:
  query   - List records matching filters
  verify  - Recompute content hashes and check signatures
  export  - Write matching records as a JSON array

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2026-03-01T00:00:00Z/2026-03-02T00:00:00Z"`,
}

var auditQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query audit records",
	Long: `Query audit records with filters.

Examples:
  # Slow-path reports that scored poorly
  cocorels audit query --path slow --max-mcda 0.4

  # Deferred completions as CSV
  cocorels audit query --deferred true --format csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAuditStore(func(ctx context.Context, store audit.Storage, q *audit.Query) error {
			return queryRecords(ctx, store, q, cmd.OutOrStdout(), cli.OutputFormat(auditFlags.format))
		}, cmd)
	},
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify record signatures",
	Long: `Recompute each record's content hash and check its signature.

The public key is read from --key (a PEM file written by "cocorels keys
generate"). Without --key the configured signing key is loaded.

Examples:
  cocorels audit verify --key keys/audit.pem.pub
  cocorels audit verify --time-range "2026-03-01T00:00:00Z/2026-03-02T00:00:00Z"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAuditStore(func(ctx context.Context, store audit.Storage, q *audit.Query) error {
			pub, err := verificationKey(auditFlags.keyFile)
			if err != nil {
				return err
			}
			return verifyRecords(ctx, store, q, pub, cmd.OutOrStdout(), cli.OutputFormat(auditFlags.format))
		}, cmd)
	},
}

var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export audit records as JSON",
	Long: `Write matching records as a JSON array, to --output or stdout.

Examples:
  cocorels audit export --output audit.json
  cocorels audit export --state TIMED_OUT --limit 1000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAuditStore(func(ctx context.Context, store audit.Storage, q *audit.Query) error {
			w := cmd.OutOrStdout()
			if auditFlags.output != "" {
				f, err := os.Create(auditFlags.output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}
			return exportRecords(ctx, store, q, w)
		}, cmd)
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditQueryCmd, auditVerifyCmd, auditExportCmd)

	pf := auditCmd.PersistentFlags()
	pf.StringVar(&auditFlags.backend, "backend", "", "backend: sqlite, memory (uses config if not specified)")
	pf.StringVar(&auditFlags.timeRange, "time-range", "", "records in time range (RFC3339 interval)")
	pf.StringVar(&auditFlags.evaluationID, "evaluation-id", "", "filter by evaluation ID")
	pf.StringVar(&auditFlags.dilemmaHash, "dilemma-hash", "", "filter by dilemma hash (hex)")
	pf.StringVar(&auditFlags.path, "path", "", "filter by path: fast, slow")
	pf.StringVar(&auditFlags.state, "state", "", "filter by state: RUNNING_FAST, COMPLETED, TIMED_OUT, FAILED")
	pf.StringVar(&auditFlags.deferred, "deferred", "", "filter by deferred completion: true, false")
	pf.Float64Var(&auditFlags.maxMCDA, "max-mcda", -1, "records with MCDA at or below this value")
	pf.IntVar(&auditFlags.limit, "limit", 0, "max records (default 100)")
	pf.IntVar(&auditFlags.offset, "offset", 0, "skip records")
	pf.StringVar(&auditFlags.sortBy, "sort-by", "", "sort field: recorded_at, mcda, balance")
	pf.StringVar(&auditFlags.sortOrder, "sort-order", "", "sort order: asc, desc")

	auditQueryCmd.Flags().StringVarP(&auditFlags.format, "format", "f", "text", "output format: text, json, csv")
	auditVerifyCmd.Flags().StringVarP(&auditFlags.format, "format", "f", "text", "output format: text, json, csv")
	auditVerifyCmd.Flags().StringVar(&auditFlags.keyFile, "key", "", "PEM public key file")
	auditExportCmd.Flags().StringVarP(&auditFlags.output, "output", "o", "", "output file (stdout when empty)")
}

// withAuditStore opens the configured backend, builds the query from flags
// and runs fn.
func withAuditStore(fn func(context.Context, audit.Storage, *audit.Query) error, cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if _, err := setupLogging(cfg); err != nil {
		return err
	}

	q, err := buildQuery()
	if err != nil {
		return err
	}

	ac := cfg.Audit
	if auditFlags.backend != "" {
		ac.Backend = auditFlags.backend
	}
	store, err := storage.Open(ac)
	if err != nil {
		return cli.NewCommandError(cmd.Name(), err)
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := fn(ctx, store, q); err != nil {
		return cli.NewCommandError(cmd.Name(), err)
	}
	return nil
}

func buildQuery() (*audit.Query, error) {
	q := &audit.Query{
		EvaluationID: auditFlags.evaluationID,
		Path:         auditFlags.path,
		State:        auditFlags.state,
		Limit:        auditFlags.limit,
		Offset:       auditFlags.offset,
		SortBy:       auditFlags.sortBy,
		SortOrder:    auditFlags.sortOrder,
	}

	if auditFlags.timeRange != "" {
		start, end, err := parseTimeRange(auditFlags.timeRange)
		if err != nil {
			return nil, err
		}
		q.StartTime, q.EndTime = &start, &end
	}

	if auditFlags.dilemmaHash != "" {
		h, err := strconv.ParseUint(strings.TrimPrefix(auditFlags.dilemmaHash, "0x"), 16, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid dilemma hash %q: %w", auditFlags.dilemmaHash, err)
		}
		q.DilemmaHash = fmt.Sprintf("%016x", h)
	}

	if auditFlags.deferred != "" {
		d, err := strconv.ParseBool(auditFlags.deferred)
		if err != nil {
			return nil, fmt.Errorf("invalid --deferred value %q", auditFlags.deferred)
		}
		q.Deferred = &d
	}

	if auditFlags.maxMCDA >= 0 {
		m := auditFlags.maxMCDA
		q.MaxMCDA = &m
	}

	query.ApplyDefaults(q)
	if err := query.Validate(q); err != nil {
		return nil, err
	}
	return q, nil
}

func parseTimeRange(s string) (time.Time, time.Time, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid time range format (expected: start/end)")
	}

	start, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
	}
	end, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
	}
	return start, end, nil
}

func queryRecords(ctx context.Context, store audit.Storage, q *audit.Query, w io.Writer, format cli.OutputFormat) error {
	formatter, err := cli.NewFormatter(format)
	if err != nil {
		return err
	}

	records, err := store.Query(ctx, q)
	if err != nil {
		return err
	}
	if format == cli.FormatJSON {
		return formatter.FormatTo(w, records)
	}
	return formatter.FormatTo(w, recordTable(records))
}

func exportRecords(ctx context.Context, store audit.Storage, q *audit.Query, w io.Writer) error {
	records, err := store.Query(ctx, q)
	if err != nil {
		return err
	}
	return export.NewJSONExporter(true).Export(ctx, records, w)
}

// verificationKey loads the raw public key from a PEM file, or from the
// configured signing key when path is empty.
func verificationKey(path string) ([]byte, error) {
	if path != "" {
		_, pub, err := signing.LoadPublicKey(path)
		return pub, err
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	sc := cfg.Audit.Signing
	if sc.Algorithm == signing.None {
		return nil, nil
	}
	if sc.KeyPath == "" {
		return nil, errors.New("no --key given and audit.signing.key_path is not set")
	}
	s, err := signing.LoadPrivateKey(sc.KeyPath)
	if err != nil {
		return nil, err
	}
	return s.PublicKey(), nil
}

// verifyReport summarises a verification run.
type verifyReport struct {
	Checked  int             `json:"checked"`
	Valid    int             `json:"valid"`
	Failures []verifyFailure `json:"failures,omitempty"`
}

type verifyFailure struct {
	RecordID string `json:"record_id"`
	Error    string `json:"error"`
}

func (v verifyReport) Header() []string { return []string{"RECORD", "ERROR"} }

func (v verifyReport) Rows() [][]string {
	rows := make([][]string, 0, len(v.Failures))
	for _, f := range v.Failures {
		rows = append(rows, []string{f.RecordID, f.Error})
	}
	return rows
}

func verifyRecords(ctx context.Context, store audit.Storage, q *audit.Query, pub []byte, w io.Writer, format cli.OutputFormat) error {
	formatter, err := cli.NewFormatter(format)
	if err != nil {
		return err
	}

	records, err := store.Query(ctx, q)
	if err != nil {
		return err
	}

	var rep verifyReport
	for _, rec := range records {
		rep.Checked++
		if err := rec.Verify(pub); err != nil {
			rep.Failures = append(rep.Failures, verifyFailure{RecordID: rec.ID, Error: err.Error()})
			continue
		}
		rep.Valid++
	}

	if format == cli.FormatText || format == "" {
		fmt.Fprintf(w, "Checked %d records: %d valid, %d invalid\n", rep.Checked, rep.Valid, len(rep.Failures))
		if len(rep.Failures) > 0 {
			fmt.Fprintln(w)
			err = formatter.FormatTo(w, rep)
		}
	} else {
		err = formatter.FormatTo(w, rep)
	}
	if err != nil {
		return err
	}

	if len(rep.Failures) > 0 {
		return fmt.Errorf("%d of %d records failed verification", len(rep.Failures), rep.Checked)
	}
	return nil
}

// recordTable lists records one per row.
type recordTable []*audit.Record

func (t recordTable) Header() []string {
	return []string{"ID", "RECORDED_AT", "PATH", "STATE", "DEFERRED", "MCDA", "BALANCE", "CONFLICTS"}
}

func (t recordTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		rows = append(rows, []string{
			r.ID,
			r.RecordedAt.Format(time.RFC3339),
			r.Path,
			r.State,
			strconv.FormatBool(r.Deferred),
			strconv.FormatFloat(r.MCDA, 'f', 4, 64),
			strconv.FormatFloat(r.Balance, 'f', 4, 64),
			strconv.Itoa(r.Conflicts),
		})
	}
	return rows
}

var _ cli.Table = recordTable(nil)
