package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cocorels-hq/kernel/pkg/cli"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr bool
		want    []string
	}{
		{
			name: "defaults",
			path: func(*testing.T) string { return "" },
			want: []string{"✓ Configuration valid", "sub-traits:   12"},
		},
		{
			name: "overrides",
			path: func(t *testing.T) string {
				return writeConfig(t, "router:\n  low_complexity: 1000\naudit:\n  enabled: true\n  backend: memory\n")
			},
			want: []string{"✓ Configuration valid", "audit:        true (memory)"},
		},
		{
			name: "every invalid field is listed",
			path: func(t *testing.T) string {
				return writeConfig(t, "evaluation:\n  workers: -1\n  neutral_score: 2\n")
			},
			wantErr: true,
			want:    []string{"✗ evaluation.workers", "✗ evaluation.neutral_score"},
		},
		{
			name: "unparseable yaml",
			path: func(t *testing.T) string {
				return writeConfig(t, "router: [\n")
			},
			wantErr: true,
		},
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := validateConfig(tt.path(t), &buf)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			var cfgErr *cli.ConfigError
			if tt.wantErr && !errors.As(err, &cfgErr) {
				t.Errorf("validateConfig() error = %T, want *cli.ConfigError", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output missing %q:\n%s", w, buf.String())
				}
			}
		})
	}
}
