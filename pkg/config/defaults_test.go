package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestApplyDefaults_Empty(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if len(cfg.SubTraits) != 12 {
		t.Errorf("Expected 12 default sub-traits, got %d", len(cfg.SubTraits))
	}
	if len(cfg.Interactions) != 3 {
		t.Errorf("Expected 3 default interactions, got %d", len(cfg.Interactions))
	}
	if cfg.Router.LowComplexity != 2000 || cfg.Router.HighComplexity != 7000 {
		t.Errorf("Unexpected complexity thresholds: %d/%d", cfg.Router.LowComplexity, cfg.Router.HighComplexity)
	}
	if cfg.Router.MinSlowPathBudget != 50*time.Millisecond {
		t.Errorf("Expected 50ms min budget, got %v", cfg.Router.MinSlowPathBudget)
	}
	if cfg.Router.Cutoff() != 0x80 {
		t.Errorf("Expected jitter cutoff 0x80, got 0x%X", cfg.Router.Cutoff())
	}
	if cfg.Evaluation.Workers != 2 {
		t.Errorf("Expected 2 workers, got %d", cfg.Evaluation.Workers)
	}
	if cfg.Evaluation.HardCap != 250*time.Millisecond {
		t.Errorf("Expected 250ms hard cap, got %v", cfg.Evaluation.HardCap)
	}
	if cfg.Evaluation.Provisional() != 0.2 {
		t.Errorf("Expected provisional score 0.2, got %v", cfg.Evaluation.Provisional())
	}
	if cfg.Resolution.ScoreDiffScale != ScaleRaw {
		t.Errorf("Expected the raw score scale, got %q", cfg.Resolution.ScoreDiffScale)
	}
	if diff := cmp.Diff([]string{"NC", "DI"}, cfg.Boosts.CoreBoostedSubTraits); diff != "" {
		t.Errorf("Core boosted sub-traits mismatch (-want +got):\n%s", diff)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Defaulted config should validate, got: %v", err)
	}
}

func TestApplyDefaults_CustomSubTraitsKeepEmptyInteractions(t *testing.T) {
	cfg := &Config{
		SubTraits: map[string]SubTraitConfig{
			"X": {Parent: "Duty", Weight: 1, Predicate: "p"},
		},
	}
	ApplyDefaults(cfg)

	if len(cfg.Interactions) != 0 {
		t.Errorf("Expected no interactions for a custom taxonomy, got %d", len(cfg.Interactions))
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	a := Default()
	b := Default()
	ApplyDefaults(b)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("ApplyDefaults not idempotent (-first +second):\n%s", diff)
	}
}

func TestNormalizedScoreDiff(t *testing.T) {
	tests := []struct {
		name  string
		in    *float64
		scale string
		want  float64
	}{
		{"unset", nil, "", 7000.0 / 30000.0},
		{"raw default", Float(7000), ScaleRaw, 7000.0 / 30000.0},
		{"raw one", Float(1), ScaleRaw, 1.0 / 30000.0},
		{"raw full", Float(30000), ScaleRaw, 1},
		{"empty scale reads raw", Float(1), "", 1.0 / 30000.0},
		{"unit", Float(0.25), ScaleUnit, 0.25},
		{"unit one", Float(1), ScaleUnit, 1},
		{"zero", Float(0), ScaleUnit, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolutionConfig{ScoreDiffThreshold: tt.in, ScoreDiffScale: tt.scale}.NormalizedScoreDiff()
			if got != tt.want {
				t.Errorf("NormalizedScoreDiff() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyDefaults_KeepsExplicitZeros(t *testing.T) {
	cfg := &Config{}
	cfg.Router.JitterCutoff = Int(0)
	cfg.Resolution.ScoreDiffThreshold = Float(0)
	cfg.Evaluation.ProvisionalScore = Float(0)

	ApplyDefaults(cfg)

	if cfg.Router.Cutoff() != 0 {
		t.Errorf("jitter cutoff = %d, want 0", cfg.Router.Cutoff())
	}
	if cfg.Resolution.NormalizedScoreDiff() != 0 {
		t.Errorf("score diff = %v, want 0", cfg.Resolution.NormalizedScoreDiff())
	}
	if cfg.Evaluation.Provisional() != 0 {
		t.Errorf("provisional score = %v, want 0", cfg.Evaluation.Provisional())
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}
