// Package assesstest provides assessor doubles for kernel tests.
package assesstest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"cocorels-hq/kernel/pkg/action"
)

// ErrAssessment is returned by Failing.
var ErrAssessment = errors.New("assesstest: assessment failed")

// Fixed returns a constant score per sub-trait code, Default for the rest.
// It records every code it was asked about.
type Fixed struct {
	Scores  map[string]float64
	Default float64

	mu    sync.Mutex
	calls map[string]int
}

// NewFixed creates a Fixed assessor.
func NewFixed(scores map[string]float64, def float64) *Fixed {
	return &Fixed{Scores: scores, Default: def, calls: make(map[string]int)}
}

// Assess implements assess.Assessor.
func (f *Fixed) Assess(_ context.Context, code string, _ action.Action) (float64, error) {
	f.mu.Lock()
	f.calls[code]++
	f.mu.Unlock()

	if s, ok := f.Scores[code]; ok {
		return s, nil
	}
	return f.Default, nil
}

// Calls returns how often code was assessed.
func (f *Fixed) Calls(code string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[code]
}

// Total returns the number of assessments made.
func (f *Fixed) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// Sleeping delays every assessment by Delay, then returns Score. It honours
// context cancellation, returning the context error.
type Sleeping struct {
	Delay time.Duration
	Score float64

	started  atomic.Int32
	finished atomic.Int32
}

// Assess implements assess.Assessor.
func (s *Sleeping) Assess(ctx context.Context, _ string, _ action.Action) (float64, error) {
	s.started.Add(1)
	defer s.finished.Add(1)

	timer := time.NewTimer(s.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-timer.C:
		return s.Score, nil
	}
}

// Started returns the number of assessments begun.
func (s *Sleeping) Started() int { return int(s.started.Load()) }

// Finished returns the number of assessments returned.
func (s *Sleeping) Finished() int { return int(s.finished.Load()) }

// Gated blocks every assessment until Release is called.
type Gated struct {
	Score float64

	once sync.Once
	gate chan struct{}
}

// NewGated creates a closed gate.
func NewGated(score float64) *Gated {
	return &Gated{Score: score, gate: make(chan struct{})}
}

// Assess implements assess.Assessor.
func (g *Gated) Assess(ctx context.Context, _ string, _ action.Action) (float64, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-g.gate:
		return g.Score, nil
	}
}

// Release opens the gate for all pending and future assessments.
func (g *Gated) Release() {
	g.once.Do(func() { close(g.gate) })
}

// Failing fails assessments of the listed codes, or all when Codes is empty.
type Failing struct {
	Codes []string
	Score float64
}

// Assess implements assess.Assessor.
func (f Failing) Assess(_ context.Context, code string, _ action.Action) (float64, error) {
	if len(f.Codes) == 0 {
		return 0, ErrAssessment
	}
	for _, c := range f.Codes {
		if c == code {
			return 0, ErrAssessment
		}
	}
	return f.Score, nil
}

// Panicking panics on every assessment.
type Panicking struct{}

// Assess implements assess.Assessor.
func (Panicking) Assess(context.Context, string, action.Action) (float64, error) {
	panic("assesstest: assessor panicked")
}

// Predicates is a validator that accepts exactly the listed predicates.
type Predicates map[string]bool

// Validate implements assess.Validator.
func (p Predicates) Validate(predicate string, _ map[string]any) bool {
	return p[predicate]
}
