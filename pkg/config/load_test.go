package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cocorels.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
sub_traits:
  TC: {parent: Duty, weight: 0.8, predicate: "co'e gunka co'u"}
  NC: {parent: Respect, weight: 0.9, predicate: "na rinju"}
  TR: {parent: Honesty, weight: 0.8, predicate: "fapro jitro"}
interactions:
  - {a: TR, b: NC, weight: -0.4}
resolution_config:
  conflict_threshold: 0.5
  score_diff_threshold: 0.2
  score_diff_scale: unit
router:
  low_complexity: 1000
  high_complexity: 9000
  min_slow_path_budget: 80ms
boosts:
  core_boosted_sub_traits: [NC]
evaluation:
  workers: 4
  hard_cap: 400ms
telemetry:
  logging:
    level: debug
    format: text
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if len(cfg.SubTraits) != 3 {
		t.Errorf("Expected 3 sub-traits, got %d", len(cfg.SubTraits))
	}
	if cfg.SubTraits["NC"].Predicate != "na rinju" {
		t.Errorf("Expected NC predicate %q, got %q", "na rinju", cfg.SubTraits["NC"].Predicate)
	}
	if cfg.Router.LowComplexity != 1000 || cfg.Router.HighComplexity != 9000 {
		t.Errorf("Unexpected router thresholds: %+v", cfg.Router)
	}
	if cfg.Router.MinSlowPathBudget != 80*time.Millisecond {
		t.Errorf("Expected 80ms, got %v", cfg.Router.MinSlowPathBudget)
	}
	if cfg.Router.Cutoff() != DefaultJitterCutoff {
		t.Errorf("Expected default jitter cutoff, got %d", cfg.Router.Cutoff())
	}
	if cfg.Evaluation.Workers != 4 || cfg.Evaluation.HardCap != 400*time.Millisecond {
		t.Errorf("Unexpected evaluation section: %+v", cfg.Evaluation)
	}
	if cfg.Resolution.NormalizedScoreDiff() != 0.2 {
		t.Errorf("Expected normalized diff 0.2, got %v", cfg.Resolution.NormalizedScoreDiff())
	}
}

func TestLoadConfig_ExplicitZeros(t *testing.T) {
	path := writeConfig(t, `
resolution_config:
  score_diff_threshold: 0
router:
  jitter_cutoff: 0
evaluation:
  provisional_score: 0
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Router.Cutoff() != 0 {
		t.Errorf("Expected jitter cutoff 0, got %d", cfg.Router.Cutoff())
	}
	if cfg.Resolution.NormalizedScoreDiff() != 0 {
		t.Errorf("Expected score diff 0, got %v", cfg.Resolution.NormalizedScoreDiff())
	}
	if cfg.Evaluation.Provisional() != 0 {
		t.Errorf("Expected provisional score 0, got %v", cfg.Evaluation.Provisional())
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if !strings.Contains(err.Error(), "failed to read configuration file") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "router: [unterminated")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("Expected parse error")
	}
}

func TestLoadConfig_MissingPredicateIsFatal(t *testing.T) {
	path := writeConfig(t, `
sub_traits:
  TC: {parent: Duty, weight: 0.8}
`)

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("Expected validation error for missing predicate")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %T", err)
	}
	found := false
	for _, fe := range verr.Errors {
		if fe.Field == "sub_traits.TC.predicate" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected sub_traits.TC.predicate error, got %v", verr.Errors)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
router:
  low_complexity: 1000
`)

	t.Setenv("COCORELS_ROUTER_LOW_COMPLEXITY", "1500")
	t.Setenv("COCORELS_EVALUATION_HARD_CAP", "300ms")
	t.Setenv("COCORELS_AUDIT_ENABLED", "true")
	t.Setenv("COCORELS_AUDIT_BACKEND", "memory")
	t.Setenv("COCORELS_EVALUATION_WORKERS", "not-a-number")
	t.Setenv("COCORELS_SERVER_GOVERNANCE_TOKEN", "governance-token-0001")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Router.LowComplexity != 1500 {
		t.Errorf("Expected env override 1500, got %d", cfg.Router.LowComplexity)
	}
	if cfg.Evaluation.HardCap != 300*time.Millisecond {
		t.Errorf("Expected 300ms, got %v", cfg.Evaluation.HardCap)
	}
	if !cfg.Audit.Enabled || cfg.Audit.Backend != "memory" {
		t.Errorf("Expected audit enabled on memory, got %+v", cfg.Audit)
	}
	if cfg.Evaluation.Workers != DefaultWorkers {
		t.Errorf("Unparseable override should be ignored, got %d workers", cfg.Evaluation.Workers)
	}
	if len(cfg.Server.GovernanceTokens) != 1 || cfg.Server.GovernanceTokens[0] != "governance-token-0001" {
		t.Errorf("Expected the governance token override, got %v", cfg.Server.GovernanceTokens)
	}
}

func TestLoadConfigWithEnvOverrides_ScoreDiff(t *testing.T) {
	t.Setenv("COCORELS_ROUTER_JITTER_CUTOFF", "0")
	t.Setenv("COCORELS_RESOLUTION_SCORE_DIFF_THRESHOLD", "0.5")
	t.Setenv("COCORELS_RESOLUTION_SCORE_DIFF_SCALE", "unit")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Router.Cutoff() != 0 {
		t.Errorf("Expected jitter cutoff 0, got %d", cfg.Router.Cutoff())
	}
	if got := cfg.Resolution.NormalizedScoreDiff(); got != 0.5 {
		t.Errorf("Expected score diff 0.5, got %v", got)
	}
}

func TestLoadConfigWithEnvOverrides_EmptyPath(t *testing.T) {
	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("Expected defaults to load, got %v", err)
	}
	if len(cfg.SubTraits) == 0 {
		t.Error("Expected default sub-traits")
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverride(t *testing.T) {
	t.Setenv("COCORELS_ROUTER_HIGH_COMPLEXITY", "10")

	_, err := LoadConfigWithEnvOverrides("")
	if err == nil {
		t.Fatal("Expected validation error after override")
	}
	if !strings.Contains(err.Error(), "router.high_complexity") {
		t.Errorf("Unexpected error: %v", err)
	}
}
