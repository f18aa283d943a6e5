package routing

import (
	"fmt"
	"time"

	"cocorels-hq/kernel/pkg/config"
)

// Path is the evaluation path chosen for a call.
type Path int

const (
	// Fast is the deterministic heuristic path.
	Fast Path = iota
	// Slow is the sub-trait assessment, conflict resolution and aggregation path.
	Slow
)

// String returns "fast" or "slow".
func (p Path) String() string {
	if p == Slow {
		return "slow"
	}
	return "fast"
}

// MarshalText renders the path name.
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses "fast" or "slow".
func (p *Path) UnmarshalText(b []byte) error {
	switch string(b) {
	case "fast":
		*p = Fast
	case "slow":
		*p = Slow
	default:
		return fmt.Errorf("unknown path %q", b)
	}
	return nil
}

// Params are the per-call routing inputs.
type Params struct {
	// CriterionCode is the numeric code of the criterion the caller is
	// primarily interested in. Unknown codes have FAST affinity.
	CriterionCode int

	// DilemmaHash identifies the case; its low byte feeds the jitter.
	DilemmaHash uint64

	// Complexity is the caller's complexity score.
	Complexity int

	// ForceSlow unconditionally selects the slow path.
	ForceSlow bool

	// TimeBudget is the caller's time budget.
	TimeBudget time.Duration
}

// Reason records which rule produced a decision.
type Reason string

const (
	ReasonForced         Reason = "forced"
	ReasonBudget         Reason = "budget_below_minimum"
	ReasonLowComplexity  Reason = "low_complexity"
	ReasonHighComplexity Reason = "high_complexity"
	ReasonAffinity       Reason = "slow_affinity"
	ReasonJitterEscalate Reason = "jitter_escalate"
	ReasonJitterStay     Reason = "jitter_stay"
)

// Decision is the outcome of a routing call.
type Decision struct {
	Path   Path
	Reason Reason
}

// Thresholds are the runtime-adjustable routing thresholds.
type Thresholds struct {
	// LowComplexity: complexity strictly below routes FAST.
	LowComplexity int

	// HighComplexity: complexity strictly above routes SLOW.
	HighComplexity int

	// MinSlowPathBudget: budgets strictly below route FAST.
	MinSlowPathBudget time.Duration

	// JitterCutoff: jitter bytes strictly above escalate to SLOW.
	JitterCutoff byte
}

// DefaultThresholds returns the reference thresholds (2000, 7000, 50ms, 0x80).
func DefaultThresholds() Thresholds {
	return Thresholds{
		LowComplexity:     config.DefaultLowComplexity,
		HighComplexity:    config.DefaultHighComplexity,
		MinSlowPathBudget: config.DefaultMinSlowPathBudget,
		JitterCutoff:      config.DefaultJitterCutoff,
	}
}

// ThresholdsFromConfig converts the router configuration section.
func ThresholdsFromConfig(cfg config.RouterConfig) Thresholds {
	return Thresholds{
		LowComplexity:     cfg.LowComplexity,
		HighComplexity:    cfg.HighComplexity,
		MinSlowPathBudget: cfg.MinSlowPathBudget,
		JitterCutoff:      byte(cfg.Cutoff()),
	}
}

// RoutingStats is a point-in-time snapshot of router counters.
type RoutingStats struct {
	// TotalDecisions is the number of Decide calls.
	TotalDecisions int64 `json:"total_decisions"`

	// PerPath counts decisions by path name.
	PerPath map[string]int64 `json:"per_path"`

	// PerReason counts decisions by reason.
	PerReason map[string]int64 `json:"per_reason"`

	// ThresholdUpdates counts SetThresholds calls.
	ThresholdUpdates int64 `json:"threshold_updates"`

	// LastResetTime is when the counters were last reset.
	LastResetTime time.Time `json:"last_reset_time"`
}
