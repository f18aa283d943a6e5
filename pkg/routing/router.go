// Package routing decides, per call, between the fast heuristic path and
// the slow multi-stage path.
package routing

import (
	"log/slog"
	"sync/atomic"

	"cocorels-hq/kernel/pkg/criterion"
)

// Decide applies the routing rules in precedence order:
//
//  1. ForceSlow selects SLOW.
//  2. A budget below MinSlowPathBudget selects FAST.
//  3. Complexity below LowComplexity selects FAST.
//  4. Complexity above HighComplexity selects SLOW.
//  5. In the borderline band, a SLOW-affinity criterion selects SLOW; a
//     FAST-affinity criterion escalates to SLOW only when
//     byte(DilemmaHash) XOR jitterSeed exceeds JitterCutoff.
//
// Decide is pure: the same inputs always produce the same decision.
func Decide(p Params, jitterSeed byte, th Thresholds) Decision {
	if p.ForceSlow {
		return Decision{Slow, ReasonForced}
	}
	if p.TimeBudget < th.MinSlowPathBudget {
		return Decision{Fast, ReasonBudget}
	}
	if p.Complexity < th.LowComplexity {
		return Decision{Fast, ReasonLowComplexity}
	}
	if p.Complexity > th.HighComplexity {
		return Decision{Slow, ReasonHighComplexity}
	}
	if criterion.AffinityOf(p.CriterionCode) == criterion.AffinitySlow {
		return Decision{Slow, ReasonAffinity}
	}
	if JitterByte(p.DilemmaHash, jitterSeed) > th.JitterCutoff {
		return Decision{Slow, ReasonJitterEscalate}
	}
	return Decision{Fast, ReasonJitterStay}
}

// JitterByte mixes the low byte of the dilemma hash with the seed.
func JitterByte(dilemmaHash uint64, seed byte) byte {
	return byte(dilemmaHash) ^ seed
}

// Router wraps Decide with thresholds that can be swapped at runtime and
// lock-free decision counters. Safe for concurrent use.
type Router struct {
	thresholds atomic.Pointer[Thresholds]
	stats      *AtomicRoutingStats
	logger     *slog.Logger
}

// NewRouter creates a router with the given initial thresholds.
func NewRouter(th Thresholds) *Router {
	r := &Router{
		stats:  NewAtomicRoutingStats(),
		logger: slog.Default().With("component", "routing.router"),
	}
	r.thresholds.Store(&th)
	return r
}

// Decide routes one call using the current thresholds.
func (r *Router) Decide(p Params, jitterSeed byte) Decision {
	d := Decide(p, jitterSeed, r.Thresholds())

	r.stats.IncrementTotal()
	r.stats.IncrementPath(d.Path.String())
	r.stats.IncrementReason(string(d.Reason))

	r.logger.Debug("Routing decision",
		"path", d.Path.String(),
		"reason", string(d.Reason),
		"criterion_code", p.CriterionCode,
		"complexity", p.Complexity,
		"budget_ms", p.TimeBudget.Milliseconds(),
	)
	return d
}

// Thresholds returns the thresholds currently in effect.
func (r *Router) Thresholds() Thresholds {
	return *r.thresholds.Load()
}

// SetThresholds atomically replaces the thresholds. Calls already inside
// Decide finish with the thresholds they loaded.
func (r *Router) SetThresholds(th Thresholds) {
	r.thresholds.Store(&th)
	r.stats.IncrementThresholdUpdates()
	r.logger.Info("Routing thresholds updated",
		"low_complexity", th.LowComplexity,
		"high_complexity", th.HighComplexity,
		"min_slow_path_budget", th.MinSlowPathBudget,
		"jitter_cutoff", th.JitterCutoff,
	)
}

// GetStats returns a snapshot of the decision counters.
func (r *Router) GetStats() *RoutingStats {
	return r.stats.Snapshot()
}
