package evaluation

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"cocorels-hq/kernel/pkg/action"
	"cocorels-hq/kernel/pkg/criterion"
	"cocorels-hq/kernel/pkg/report"
	"cocorels-hq/kernel/pkg/telemetry/logging"
)

// runSlow is the slow path: assess every sub-trait, resolve conflicts,
// apply boosts, aggregate per criterion and summarize. It runs on a pool
// worker and is never cancelled by the caller.
func (e *Engine) runSlow(base report.Report, a action.Action) (*report.Report, error) {
	ctx := logging.WithEvaluationID(context.Background(), base.ID)

	raw, err := e.assessAll(ctx, a)
	if err != nil {
		return nil, err
	}

	res := e.conflicts.DetectAndResolve(raw)
	if n := len(res.Conflicts); n > 0 {
		e.observer.ConflictsResolved(n)
		e.observer.MomentumChanged(res.MomentumAfter)
		e.logger.InfoContext(ctx, "conflicts resolved",
			"conflicts", n,
			"momentum_after", res.MomentumAfter,
		)
	}

	boosted := e.conflicts.ApplyBoosts(res.Scores)
	scores := e.aggregator.Aggregate(boosted)
	if e.validator != nil {
		scores[criterion.PredicateValidation] = e.validatePredicates(a)
	}

	r := base
	r.State = report.StateCompleted
	r.Evaluations = report.Complete(scores, e.settings.NeutralScore)
	r.SubTraitScores = boosted
	r.Conflicts = res.Conflicts
	r.MCDA, r.Balance = report.Summarize(r.Evaluations)
	r.MomentumAfter = res.MomentumAfter
	r.CompletedAt = time.Now()
	return &r, nil
}

// assessAll scores every sub-trait concurrently, at most AssessConcurrency
// at a time, each bounded by AssessTimeout. The first failure fails the
// whole slow path.
func (e *Engine) assessAll(ctx context.Context, a action.Action) (map[string]float64, error) {
	codes := e.taxonomy.Codes()
	scores := make([]float64, len(codes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.settings.AssessConcurrency)

	for i, code := range codes {
		g.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = &SlowPathError{Stage: StagePanic, SubTrait: code, Cause: fmt.Errorf("%v", p)}
				}
			}()

			actx, cancel := context.WithTimeout(gctx, e.settings.AssessTimeout)
			defer cancel()

			v, err := e.assessor.Assess(actx, code, a)
			if err != nil {
				return &SlowPathError{Stage: StageAssess, SubTrait: code, Cause: err}
			}
			scores[i] = report.Clamp(v, e.settings.NeutralScore)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(codes))
	for i, code := range codes {
		out[code] = scores[i]
	}
	return out, nil
}

// validatePredicates scores PredicateValidation as the fraction of sub-trait
// predicates the validator accepts for the action context.
func (e *Engine) validatePredicates(a action.Action) report.Evaluation {
	codes := e.taxonomy.Codes()
	if len(codes) == 0 {
		return report.Evaluation{
			Score:         e.settings.NeutralScore,
			Justification: "slow path: no predicates, neutral default",
			Defaulted:     true,
		}
	}

	actx := a.Context()
	accepted := 0
	for _, code := range codes {
		st, _ := e.taxonomy.Get(code)
		if e.validator.Validate(st.Predicate, actx) {
			accepted++
		}
	}

	return report.Evaluation{
		Score:         float64(accepted) / float64(len(codes)),
		Justification: fmt.Sprintf("slow path: %d of %d sub-trait predicates hold", accepted, len(codes)),
	}
}
