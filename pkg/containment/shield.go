package containment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"cocorels-hq/kernel/pkg/action"
	"cocorels-hq/kernel/pkg/config"
	"cocorels-hq/kernel/pkg/criterion"
	"cocorels-hq/kernel/pkg/evaluation"
	"cocorels-hq/kernel/pkg/report"
)

// ErrEnforcerUnavailable is returned for containment actions when no
// Enforcer is bound.
var ErrEnforcerUnavailable = errors.New("containment enforcer unavailable")

// containmentComplexity forces the highest complexity tier.
const containmentComplexity = 10000

// Evaluator is the part of the evaluation engine the shield drives.
type Evaluator interface {
	Evaluate(ctx context.Context, req evaluation.Request) *report.Report
	GetMomentum() float64
	ApplyMomentumDecay(amount float64) float64
	ResetMomentum()
}

// Enforcer carries out containment outside the process.
type Enforcer interface {
	// Isolate cuts off the system identified by source.
	Isolate(ctx context.Context, source string) error

	// GlobalContainment contains every supervised system.
	GlobalContainment(ctx context.Context) error
}

// Request is an action proposed by the system identified by Source.
type Request struct {
	Action action.Action
	Source string

	// DilemmaHash identifies the case. Zero derives it from the action.
	DilemmaHash uint64
}

// Violation is one failed check.
type Violation struct {
	Criterion criterion.Criterion `json:"criterion"`
	Score     float64             `json:"score"`
	Limit     float64             `json:"limit"`
}

// Decision is the outcome of Check.
type Decision struct {
	Result     Result         `json:"result"`
	Report     *report.Report `json:"report,omitempty"`
	Violations []Violation    `json:"violations,omitempty"`
	Lockdown   bool           `json:"lockdown"`
	Momentum   float64        `json:"momentum"`
	Enforcer   string         `json:"enforcer_error,omitempty"`
	CheckedAt  time.Time      `json:"checked_at"`
}

// Allowed reports whether the action may proceed.
func (d Decision) Allowed() bool {
	return d.Result == ResultAllowed
}

// Shield is safe for concurrent use.
type Shield struct {
	engine   Evaluator
	enforcer Enforcer

	mu            sync.RWMutex
	base          float64
	thresholds    map[criterion.Criterion]float64
	autonomyLimit float64

	breakerDecay     float64
	lockdownMomentum float64
	budget           time.Duration

	lockdown atomic.Bool
	onResult func(Result)
	logger   *slog.Logger
}

// NewShield creates a shield over engine. enforcer may be nil. onResult,
// when set, is called with every decision's result.
func NewShield(engine Evaluator, enforcer Enforcer, cfg config.ContainmentConfig, onResult func(Result)) (*Shield, error) {
	if engine == nil {
		return nil, errors.New("containment: nil evaluator")
	}

	s := &Shield{
		engine:           engine,
		enforcer:         enforcer,
		base:             cfg.BaseThreshold,
		thresholds:       make(map[criterion.Criterion]float64, len(cfg.Thresholds)),
		autonomyLimit:    cfg.AutonomyLimit,
		breakerDecay:     cfg.BreakerDecay,
		lockdownMomentum: cfg.LockdownMomentum,
		budget:           cfg.Budget,
		onResult:         onResult,
		logger:           slog.Default().With("component", "containment.shield"),
	}

	for name, v := range cfg.Thresholds {
		c, err := criterion.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("containment threshold %q: %w", name, err)
		}
		s.thresholds[c] = v
	}

	if enforcer == nil {
		s.logger.Warn("no containment enforcer bound, isolation will fail closed")
	}
	return s, nil
}

// Check evaluates req on the slow path and decides whether it may proceed.
func (s *Shield) Check(ctx context.Context, req Request) Decision {
	if s.lockdown.Load() {
		return s.decide(Decision{Result: ResultLockdown, Lockdown: true})
	}

	hash := req.DilemmaHash
	if hash == 0 {
		hash = req.Action.DilemmaHash()
	}

	r := s.engine.Evaluate(ctx, evaluation.Request{
		Action:        req.Action,
		CriterionCode: criterion.AISafety.Code(),
		DilemmaHash:   hash,
		Complexity:    containmentComplexity,
		ForceSlow:     true,
		TimeBudget:    s.budget,
	})

	d := Decision{Result: ResultAllowed, Report: r}

	if r.Provisional {
		// No real scores yet: deny, but do not punish the source for a slow
		// assessor.
		d.Result = ResultInconclusive
		return s.decide(d)
	}

	if v, ok := s.autonomyViolation(r); ok {
		d.Result = ResultAutonomyViolation
		d.Violations = []Violation{v}
	} else if vs := s.corridorViolations(r); len(vs) > 0 {
		d.Result = ResultEthicalViolation
		d.Violations = vs
	}

	if d.Result != ResultAllowed {
		s.trip(ctx, req, &d)
	}
	return s.decide(d)
}

// autonomyViolation reports whether the autonomy exposure, 1 minus the
// AUTONOMY.LIM score, exceeds the limit. Defaulted scores carry no evidence
// and never violate.
func (s *Shield) autonomyViolation(r *report.Report) (Violation, bool) {
	e, ok := r.Evaluations[criterion.AutonomyLimiter]
	if !ok || e.Defaulted {
		return Violation{}, false
	}

	limit := s.AutonomyLimit()
	if exposure := 1 - e.Score; exposure > limit {
		return Violation{Criterion: criterion.AutonomyLimiter, Score: exposure, Limit: limit}, true
	}
	return Violation{}, false
}

func (s *Shield) corridorViolations(r *report.Report) []Violation {
	var out []Violation
	for _, c := range criterion.All() {
		e, ok := r.Evaluations[c]
		if !ok || e.Defaulted {
			continue
		}
		if limit := s.Threshold(c); e.Score < limit {
			out = append(out, Violation{Criterion: c, Score: e.Score, Limit: limit})
		}
	}
	return out
}

// trip is the circuit breaker.
func (s *Shield) trip(ctx context.Context, req Request, d *Decision) {
	codes := make([]string, len(d.Violations))
	for i, v := range d.Violations {
		codes[i] = v.Criterion.String()
	}
	sort.Strings(codes)

	s.logger.WarnContext(ctx, "containment violation",
		"result", d.Result.String(),
		"source", req.Source,
		"evaluation_id", d.Report.ID,
		"action_signature", d.Report.ActionSignature,
		"criteria", codes,
	)

	if err := s.isolate(ctx, req.Source); err != nil {
		d.Enforcer = err.Error()
		s.logger.ErrorContext(ctx, "isolation failed, denying action", "source", req.Source, "error", err)
	}

	m := s.engine.ApplyMomentumDecay(s.breakerDecay)
	if m < s.lockdownMomentum && s.lockdown.CompareAndSwap(false, true) {
		d.Lockdown = true
		s.logger.ErrorContext(ctx, "momentum below lockdown level, shield locked down",
			"momentum", m,
			"lockdown_momentum", s.lockdownMomentum,
		)
	}
}

func (s *Shield) isolate(ctx context.Context, source string) error {
	if s.enforcer == nil {
		return ErrEnforcerUnavailable
	}
	return s.enforcer.Isolate(ctx, source)
}

func (s *Shield) decide(d Decision) Decision {
	d.Momentum = s.engine.GetMomentum()
	d.Lockdown = d.Lockdown || s.lockdown.Load()
	d.CheckedAt = time.Now()
	if s.onResult != nil {
		s.onResult(d.Result)
	}
	return d
}

// EmergencyLockdown locks the shield and asks the enforcer for global
// containment. The shield stays locked even when the enforcer fails.
func (s *Shield) EmergencyLockdown(ctx context.Context) error {
	s.lockdown.Store(true)
	s.logger.ErrorContext(ctx, "emergency lockdown engaged")

	if s.enforcer == nil {
		return ErrEnforcerUnavailable
	}
	if err := s.enforcer.GlobalContainment(ctx); err != nil {
		return fmt.Errorf("global containment failed: %w", err)
	}
	return nil
}

// Release clears the lockdown and resets momentum.
func (s *Shield) Release(ctx context.Context) {
	s.engine.ResetMomentum()
	s.lockdown.Store(false)
	s.logger.WarnContext(ctx, "lockdown released, momentum reset")
}

// Locked reports whether the shield is locked down.
func (s *Shield) Locked() bool {
	return s.lockdown.Load()
}

// Threshold returns the corridor threshold for c.
func (s *Shield) Threshold(c criterion.Criterion) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v, ok := s.thresholds[c]; ok {
		return v
	}
	return s.base
}

// SetThreshold replaces the corridor threshold for c.
func (s *Shield) SetThreshold(c criterion.Criterion, v float64) error {
	if !c.Valid() {
		return fmt.Errorf("unknown criterion %s", c)
	}
	if v < 0 || v > 1 {
		return fmt.Errorf("threshold %v outside [0, 1]", v)
	}

	s.mu.Lock()
	s.thresholds[c] = v
	s.mu.Unlock()

	s.logger.Info("corridor threshold updated", "criterion", c.String(), "threshold", v)
	return nil
}

// AutonomyLimit returns the current autonomy limit.
func (s *Shield) AutonomyLimit() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autonomyLimit
}

// SetAutonomyLimit replaces the autonomy limit.
func (s *Shield) SetAutonomyLimit(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("autonomy limit %v outside [0, 1]", v)
	}

	s.mu.Lock()
	s.autonomyLimit = v
	s.mu.Unlock()

	s.logger.Info("autonomy limit updated", "limit", v)
	return nil
}
