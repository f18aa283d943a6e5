// Package evaluation coordinates one call end to end: it routes the call,
// runs the fast path inline or hands the slow path to a bounded worker pool,
// waits for it under an effective deadline, and degrades to a provisional or
// fast-path report when the slow path is late or fails.
//
// Evaluate never returns an error and always returns a report covering every
// criterion. A slow path that misses its deadline keeps running; its result
// is published to the audit sink with Deferred set and is never returned to
// the caller that started it.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"cocorels-hq/kernel/pkg/action"
	"cocorels-hq/kernel/pkg/aggregate"
	"cocorels-hq/kernel/pkg/assess"
	"cocorels-hq/kernel/pkg/audit"
	"cocorels-hq/kernel/pkg/config"
	"cocorels-hq/kernel/pkg/conflict"
	"cocorels-hq/kernel/pkg/criterion"
	"cocorels-hq/kernel/pkg/fastpath"
	"cocorels-hq/kernel/pkg/momentum"
	"cocorels-hq/kernel/pkg/report"
	"cocorels-hq/kernel/pkg/routing"
	"cocorels-hq/kernel/pkg/taxonomy"
	"cocorels-hq/kernel/pkg/telemetry/logging"
)

// ProvisionalJustification marks every score of a timed-out report.
const ProvisionalJustification = "provisional"

// Request is one evaluate call.
type Request struct {
	Action        action.Action
	CriterionCode int
	DilemmaHash   uint64
	Complexity    int
	ForceSlow     bool

	// TimeBudget is how long the caller is prepared to wait. The wait never
	// exceeds the hard cap. A zero or negative budget does not wait at all.
	TimeBudget time.Duration
}

// Dependencies are the collaborators injected into the engine.
type Dependencies struct {
	// Assessor scores sub-traits on the slow path. Required.
	Assessor assess.Assessor

	// Validator checks sub-trait predicates. Nil leaves VALIDATE neutral.
	Validator assess.Validator

	// Publisher receives slow-path, deferred and fallback reports. Nil
	// disables publishing.
	Publisher audit.Publisher

	// Observer receives metric hooks. Nil disables them.
	Observer Observer

	// Momentum is the shared momentum. Nil creates a fresh one.
	Momentum *momentum.State
}

// Engine is the evaluation coordinator. Safe for concurrent use.
type Engine struct {
	settings   config.EvaluationConfig
	taxonomy   *taxonomy.Taxonomy
	router     *routing.Router
	fast       *fastpath.Evaluator
	conflicts  *conflict.Engine
	aggregator *aggregate.Aggregator
	momentum   *momentum.State
	assessor   assess.Assessor
	validator  assess.Validator
	publisher  audit.Publisher
	observer   Observer
	pool       *Pool
	logger     *slog.Logger

	jitterMu sync.Mutex
	jitter   *rand.Rand

	closed atomic.Bool
}

// New validates cfg and builds an engine. Configuration errors are only ever
// reported here; a running engine never fails a call because of them.
func New(cfg *config.Config, deps Dependencies) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("evaluation: nil config")
	}
	if deps.Assessor == nil {
		return nil, errors.New("evaluation: an assessor is required")
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	tax, err := taxonomy.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid sub-trait configuration: %w", err)
	}

	m := deps.Momentum
	if m == nil {
		m = momentum.New()
	}
	obs := deps.Observer
	if obs == nil {
		obs = nopObserver{}
	}

	settings := cfg.Evaluation
	seed := settings.JitterSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	e := &Engine{
		settings:   settings,
		taxonomy:   tax,
		router:     routing.NewRouter(routing.ThresholdsFromConfig(cfg.Router)),
		fast:       fastpath.New(settings.NeutralScore),
		conflicts:  conflict.New(tax, conflict.SettingsFromConfig(cfg), m),
		aggregator: aggregate.New(tax, settings.NeutralScore),
		momentum:   m,
		assessor:   deps.Assessor,
		validator:  deps.Validator,
		publisher:  deps.Publisher,
		observer:   obs,
		pool:       NewPool(settings.Workers, settings.QueueSize),
		logger:     slog.Default().With("component", "evaluation.engine"),
		jitter:     rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)),
	}

	e.logger.Info("evaluation engine initialized",
		"sub_traits", tax.Len(),
		"workers", settings.Workers,
		"queue_size", settings.QueueSize,
		"hard_cap", settings.HardCap,
		"predicate_validation", deps.Validator != nil,
	)

	return e, nil
}

// Evaluate scores req.Action. It never blocks longer than the effective
// deadline (plus scheduling) and never fails: late or failed slow paths
// degrade to the provisional or fast-path report.
func (e *Engine) Evaluate(ctx context.Context, req Request) *report.Report {
	start := time.Now()
	id := uuid.NewString()

	ctx = logging.WithEvaluationID(ctx, id)
	ctx = logging.WithDilemmaHash(ctx, req.DilemmaHash)
	if c, ok := criterion.FromCode(req.CriterionCode); ok {
		ctx = logging.WithCriterion(ctx, c.String())
	}

	decision := e.router.Decide(routing.Params{
		CriterionCode: req.CriterionCode,
		DilemmaHash:   req.DilemmaHash,
		Complexity:    req.Complexity,
		ForceSlow:     req.ForceSlow,
		TimeBudget:    req.TimeBudget,
	}, e.jitterSeed())

	base := report.Report{
		ID:              id,
		ActionSignature: req.Action.Signature(),
		DilemmaHash:     req.DilemmaHash,
		CriterionCode:   req.CriterionCode,
		Path:            decision.Path,
		RouteReason:     decision.Reason,
		StartedAt:       start,
	}

	if decision.Path == routing.Fast {
		r := e.fastReport(base, req.Action, report.StateFast, "")
		e.done(ctx, r)
		if e.settings.PublishFastPath {
			e.publish(ctx, r)
		}
		return r
	}

	if e.closed.Load() {
		return e.fallback(ctx, base, req.Action, ErrEngineClosed)
	}

	a := req.Action
	task, err := e.pool.Submit(func() (*report.Report, error) {
		return e.runSlow(base, a)
	})
	e.observer.QueueDepth(e.pool.QueueDepth())
	if err != nil {
		return e.fallback(ctx, base, req.Action, err)
	}

	r, err := task.AwaitWithDeadline(e.deadline(ctx, req.TimeBudget))
	switch {
	case err == nil:
		e.done(ctx, r)
		e.publish(ctx, r)
		return r

	case errors.Is(err, ErrTimedOut):
		task.Detach(e.deferred)
		r = e.provisional(base)
		e.done(ctx, r)
		return r

	default:
		return e.fallback(ctx, base, req.Action, err)
	}
}

// deadline is min(budget, HardCap), shortened further by a context deadline
// and never negative.
func (e *Engine) deadline(ctx context.Context, budget time.Duration) time.Duration {
	d := min(budget, e.settings.HardCap)
	if dl, ok := ctx.Deadline(); ok {
		d = min(d, time.Until(dl))
	}
	return max(d, 0)
}

func (e *Engine) jitterSeed() byte {
	e.jitterMu.Lock()
	defer e.jitterMu.Unlock()
	return byte(e.jitter.Uint32())
}

func (e *Engine) fastReport(base report.Report, a action.Action, state report.State, reason string) *report.Report {
	r := base
	r.State = state
	r.FallbackReason = reason
	r.Evaluations = e.fast.Evaluate(a)
	r.MCDA, r.Balance = report.Summarize(r.Evaluations)
	r.MomentumAfter = e.momentum.Load()
	r.CompletedAt = time.Now()
	return &r
}

func (e *Engine) provisional(base report.Report) *report.Report {
	r := base
	r.State = report.StateTimedOut
	r.Provisional = true
	r.Evaluations = report.Uniform(e.settings.Provisional(), ProvisionalJustification)
	r.MCDA, r.Balance = report.Summarize(r.Evaluations)
	r.MomentumAfter = e.momentum.Load()
	r.CompletedAt = time.Now()
	return &r
}

func (e *Engine) fallback(ctx context.Context, base report.Report, a action.Action, cause error) *report.Report {
	e.logger.WarnContext(ctx, "slow path failed, falling back to fast path", "error", cause)

	r := e.fastReport(base, a, report.StateFailed, cause.Error())
	e.done(ctx, r)
	e.publish(ctx, r)
	return r
}

// deferred receives the result of a slow path whose caller already timed
// out. Runs on the pool worker.
func (e *Engine) deferred(r *report.Report, err error) {
	if err != nil {
		e.logger.Error("deferred slow path failed", "error", err)
		e.observer.DeferredCompleted(string(report.StateFailed))
		return
	}

	out := r.Clone()
	out.Deferred = true

	ctx := logging.WithEvaluationID(context.Background(), out.ID)
	e.logger.InfoContext(ctx, "deferred slow path completed",
		"mcda", out.MCDA,
		"conflicts", len(out.Conflicts),
		"duration_ms", out.CompletedAt.Sub(out.StartedAt).Milliseconds(),
	)
	e.observer.DeferredCompleted(string(out.State))
	e.publish(ctx, out)
}

func (e *Engine) done(ctx context.Context, r *report.Report) {
	e.observer.EvaluationCompleted(r.Path.String(), string(r.State), r.CompletedAt.Sub(r.StartedAt))

	e.logger.DebugContext(ctx, "evaluation finished",
		"path", r.Path.String(),
		"state", string(r.State),
		"reason", string(r.RouteReason),
		"mcda", r.MCDA,
		"duration_ms", r.CompletedAt.Sub(r.StartedAt).Milliseconds(),
	)
}

func (e *Engine) publish(ctx context.Context, r *report.Report) {
	if e.publisher == nil {
		return
	}
	if _, err := e.publisher.Publish(ctx, r); err != nil {
		e.logger.WarnContext(ctx, "failed to publish report", "error", err)
	}
}

// Router returns the router so thresholds can be swapped at runtime.
func (e *Engine) Router() *routing.Router {
	return e.router
}

// RoutingStats returns a snapshot of the router's decision counters.
func (e *Engine) RoutingStats() *routing.RoutingStats {
	return e.router.GetStats()
}

// Taxonomy returns the sub-trait configuration the slow path runs against.
func (e *Engine) Taxonomy() *taxonomy.Taxonomy {
	return e.taxonomy
}

// GetMomentum returns the current momentum.
func (e *Engine) GetMomentum() float64 {
	return e.momentum.Load()
}

// ApplyMomentumDecay lowers momentum by amount (floored at 0) and returns
// the new value. Non-positive amounts are ignored.
func (e *Engine) ApplyMomentumDecay(amount float64) float64 {
	v := e.momentum.Decay(amount)
	e.observer.MomentumChanged(v)
	return v
}

// ResetMomentum restores momentum to its initial value. Reserved for
// governance logic releasing a lockdown.
func (e *Engine) ResetMomentum() {
	e.momentum.Reset()
	e.observer.MomentumChanged(e.momentum.Load())
	e.logger.Warn("momentum reset")
}

// Close stops accepting slow-path work and waits for queued and running
// tasks, including deferred ones, to finish. Later slow-path calls fall back
// to the fast path.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.pool.Close()
	e.logger.Info("evaluation engine closed")
	return nil
}
