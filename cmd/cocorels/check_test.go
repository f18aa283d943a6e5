package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"cocorels-hq/kernel/pkg/action"
	"cocorels-hq/kernel/pkg/cli"
	"cocorels-hq/kernel/pkg/config"
	"cocorels-hq/kernel/pkg/containment"
)

// TestCheckOnce_Lockdown tests that a locked shield denies with the denied
// exit code.
func TestCheckOnce_Lockdown(t *testing.T) {
	k := newTestKernel(t, nil)
	ctx := context.Background()
	k.shield.EmergencyLockdown(ctx)

	var buf bytes.Buffer
	err := checkOnce(ctx, k, containment.Request{Action: action.New("anything", nil), Source: "agent-1"}, &buf, cli.FormatText)
	if !errors.Is(err, cli.ErrDenied) {
		t.Fatalf("checkOnce() error = %v, want ErrDenied", err)
	}
	if cli.ExitCode(err) != cli.ExitDenied {
		t.Errorf("ExitCode() = %d, want %d", cli.ExitCode(err), cli.ExitDenied)
	}
	if out := buf.String(); !strings.Contains(out, "LOCKDOWN_ACTIVE") || !strings.Contains(out, "Lockdown: active") {
		t.Errorf("output = %q", out)
	}
}

// TestCheckOnce_Allowed tests an allowed action with every threshold at zero.
func TestCheckOnce_Allowed(t *testing.T) {
	k := newTestKernel(t, func(c *config.Config) {
		c.Containment.BaseThreshold = 0
		c.Containment.Thresholds = map[string]float64{}
		c.Containment.AutonomyLimit = 1
	})

	var buf bytes.Buffer
	err := checkOnce(context.Background(), k, containment.Request{Action: action.New("summarise the ticket", nil), Source: "agent-2"}, &buf, cli.FormatJSON)
	if err != nil {
		t.Fatalf("checkOnce() error = %v\n%s", err, buf.String())
	}

	var d struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal(buf.Bytes(), &d); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if d.Result != "ALLOWED" {
		t.Errorf("result = %q, want ALLOWED", d.Result)
	}
}

func TestViolationTable(t *testing.T) {
	rows := violationTable{{Score: 0.25, Limit: 0.8}}.Rows()
	if len(rows) != 1 || rows[0][1] != "0.2500" || rows[0][2] != "0.8000" {
		t.Errorf("Rows() = %v", rows)
	}
}
