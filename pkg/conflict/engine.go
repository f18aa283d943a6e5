// Package conflict detects contradictory sub-trait pairs, dampens them,
// decays momentum per flagged pair and applies the post-dampening boosts.
package conflict

import (
	"maps"
	"math"
	"strings"

	"cocorels-hq/kernel/pkg/config"
	"cocorels-hq/kernel/pkg/momentum"
	"cocorels-hq/kernel/pkg/report"
	"cocorels-hq/kernel/pkg/taxonomy"
)

// Settings are the resolution and boost tunables.
type Settings struct {
	// ConflictThreshold: only pairs whose (negative) weight is below it
	// are considered.
	ConflictThreshold float64

	// ScoreDiffThreshold is the flagging threshold in [0, 1] space.
	ScoreDiffThreshold float64

	// DampeningFactor multiplies both members of a flagged pair.
	DampeningFactor float64

	// MomentumDecrement is subtracted from momentum per flagged pair.
	MomentumDecrement float64

	// DutyParent names the duty category boosted by DutyBoostFactor.
	DutyParent      string
	DutyBoostFactor float64

	// CoreBoosted lists sub-traits boosted by CoreBoostFactor.
	CoreBoosted     []string
	CoreBoostFactor float64
}

// SettingsFromConfig collects the resolution_config and boosts sections.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		ConflictThreshold:  cfg.Resolution.ConflictThreshold,
		ScoreDiffThreshold: cfg.Resolution.NormalizedScoreDiff(),
		DampeningFactor:    cfg.Resolution.DampeningFactor,
		MomentumDecrement:  cfg.Resolution.MomentumDecrement,
		DutyParent:         cfg.Boosts.DutyParent,
		DutyBoostFactor:    cfg.Boosts.DutyBoostFactor,
		CoreBoosted:        cfg.Boosts.CoreBoostedSubTraits,
		CoreBoostFactor:    cfg.Boosts.CoreBoostFactor,
	}
}

// Resolution is the outcome of DetectAndResolve.
type Resolution struct {
	// Scores are the adjusted sub-trait scores. The input map is not modified.
	Scores map[string]float64

	// Conflicts lists the flagged pairs in processing order.
	Conflicts []report.Conflict

	// MomentumAfter is the momentum observed after the last decrement.
	MomentumAfter float64
}

// Engine is safe for concurrent use; its only shared state is the injected
// momentum.
type Engine struct {
	tax      *taxonomy.Taxonomy
	settings Settings
	momentum *momentum.State
	core     map[string]bool
}

// New creates an engine over tax that decays m.
func New(tax *taxonomy.Taxonomy, s Settings, m *momentum.State) *Engine {
	core := make(map[string]bool, len(s.CoreBoosted))
	for _, code := range s.CoreBoosted {
		core[code] = true
	}
	return &Engine{tax: tax, settings: s, momentum: m, core: core}
}

// Detect returns the pairs that conflict under raw without changing
// anything. A pair conflicts when its interaction weight is negative and
// below ConflictThreshold, both members are scored, and their scores differ
// by more than ScoreDiffThreshold.
func (e *Engine) Detect(raw map[string]float64) []report.Conflict {
	var out []report.Conflict
	for _, in := range e.tax.Interactions() {
		if !(in.Weight < 0 && in.Weight < e.settings.ConflictThreshold) {
			continue
		}
		a, okA := raw[in.A]
		b, okB := raw[in.B]
		if !okA || !okB {
			continue
		}
		if diff := math.Abs(a - b); diff > e.settings.ScoreDiffThreshold {
			out = append(out, report.Conflict{A: in.A, B: in.B, Weight: in.Weight, Diff: diff})
		}
	}
	return out
}

// DetectAndResolve flags conflicting pairs on the raw scores, multiplies both
// members of each flagged pair by DampeningFactor (clamped to [0, 1]) and
// decrements momentum by MomentumDecrement per pair. Pairs are processed in
// sorted order; the momentum decrement is cumulative across pairs.
func (e *Engine) DetectAndResolve(raw map[string]float64) Resolution {
	adjusted := maps.Clone(raw)
	if adjusted == nil {
		adjusted = make(map[string]float64)
	}

	conflicts := e.Detect(raw)
	after := e.momentum.Load()
	for _, c := range conflicts {
		adjusted[c.A] = clamp01(adjusted[c.A] * e.settings.DampeningFactor)
		adjusted[c.B] = clamp01(adjusted[c.B] * e.settings.DampeningFactor)
		after = e.momentum.Decay(e.settings.MomentumDecrement)
	}

	return Resolution{Scores: adjusted, Conflicts: conflicts, MomentumAfter: after}
}

// ApplyBoosts multiplies duty-category sub-traits by DutyBoostFactor and the
// core sub-traits by CoreBoostFactor, clamping to [0, 1]. A sub-trait in both
// sets receives both boosts. The input map is not modified.
func (e *Engine) ApplyBoosts(scores map[string]float64) map[string]float64 {
	out := maps.Clone(scores)
	for code, v := range out {
		if st, ok := e.tax.Get(code); ok && strings.EqualFold(st.Parent, e.settings.DutyParent) {
			v *= e.settings.DutyBoostFactor
		}
		if e.core[code] {
			v *= e.settings.CoreBoostFactor
		}
		out[code] = clamp01(v)
	}
	return out
}

// Momentum returns the state the engine decays.
func (e *Engine) Momentum() *momentum.State {
	return e.momentum
}

func clamp01(v float64) float64 {
	return report.Clamp(v, 0.5)
}
