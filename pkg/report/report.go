// Package report defines the evaluation report returned by the kernel and
// handed to the audit boundary.
package report

import (
	"maps"
	"math"
	"slices"
	"time"

	"cocorels-hq/kernel/pkg/criterion"
	"cocorels-hq/kernel/pkg/routing"
)

// State is the terminal state of the coordinator for one call.
type State string

const (
	// StateFast: the fast path ran inline (RUNNING_FAST is terminal).
	StateFast State = "RUNNING_FAST"
	// StateCompleted: the slow path finished within the deadline, or a
	// deferred slow path finished in the background.
	StateCompleted State = "COMPLETED"
	// StateTimedOut: the deadline expired and the provisional report was
	// returned.
	StateTimedOut State = "TIMED_OUT"
	// StateFailed: the slow path failed and the fast path result was
	// returned instead.
	StateFailed State = "FAILED"
)

// Evaluation is one criterion's score and justification.
type Evaluation struct {
	// Score is always within [0, 1].
	Score float64 `json:"score"`

	// Justification explains where the score came from.
	Justification string `json:"justification"`

	// Defaulted marks scores that carry no evidence (neutral fill).
	Defaulted bool `json:"defaulted,omitempty"`
}

// Scores maps every criterion to its evaluation.
type Scores map[criterion.Criterion]Evaluation

// Conflict is one flagged sub-trait pair.
type Conflict struct {
	A      string  `json:"a"`
	B      string  `json:"b"`
	Weight float64 `json:"weight"`
	Diff   float64 `json:"diff"`
}

// Report is the result of one evaluation. It is built fresh for every call
// and never mutated after it is returned.
type Report struct {
	ID              string             `json:"id"`
	ActionSignature string             `json:"action_signature"`
	DilemmaHash     uint64             `json:"dilemma_hash"`
	CriterionCode   int                `json:"criterion_code"`
	Path            routing.Path       `json:"path"`
	RouteReason     routing.Reason     `json:"route_reason"`
	State           State              `json:"state"`
	Evaluations     Scores             `json:"evaluations"`
	SubTraitScores  map[string]float64 `json:"sub_trait_scores,omitempty"`
	Conflicts       []Conflict         `json:"conflicts,omitempty"`
	MCDA            float64            `json:"mcda"`
	Balance         float64            `json:"balance"`
	MomentumAfter   float64            `json:"momentum_after"`
	Provisional     bool               `json:"provisional,omitempty"`
	Deferred        bool               `json:"deferred,omitempty"`
	FallbackReason  string             `json:"fallback_reason,omitempty"`
	StartedAt       time.Time          `json:"started_at"`
	CompletedAt     time.Time          `json:"completed_at"`
}

// Score returns the score for c, or NaN when absent.
func (r *Report) Score(c criterion.Criterion) float64 {
	if e, ok := r.Evaluations[c]; ok {
		return e.Score
	}
	return math.NaN()
}

// Clone returns a deep copy.
func (r *Report) Clone() *Report {
	out := *r
	out.Evaluations = maps.Clone(r.Evaluations)
	out.SubTraitScores = maps.Clone(r.SubTraitScores)
	out.Conflicts = slices.Clone(r.Conflicts)
	return &out
}

// Clamp bounds v to [0, 1]; NaN becomes neutral.
func Clamp(v, neutral float64) float64 {
	switch {
	case math.IsNaN(v):
		return neutral
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Complete clamps every score and fills missing criteria with a defaulted
// neutral evaluation, so the key set always equals the full criterion set.
func Complete(s Scores, neutral float64) Scores {
	out := make(Scores, criterion.Count())
	for _, c := range criterion.All() {
		e, ok := s[c]
		if !ok {
			out[c] = Evaluation{Score: neutral, Justification: "no evidence: neutral default", Defaulted: true}
			continue
		}
		e.Score = Clamp(e.Score, neutral)
		out[c] = e
	}
	return out
}

// Uniform scores every criterion with the same value and justification.
func Uniform(score float64, justification string) Scores {
	out := make(Scores, criterion.Count())
	for _, c := range criterion.All() {
		out[c] = Evaluation{Score: score, Justification: justification}
	}
	return out
}

// Summarize returns the mean (MCDA) and population standard deviation
// (balance) of the non-defaulted criterion scores. With no evidence it
// summarizes all scores.
func Summarize(s Scores) (mean, stddev float64) {
	var vals []float64
	for _, c := range criterion.All() {
		if e, ok := s[c]; ok && !e.Defaulted {
			vals = append(vals, e.Score)
		}
	}
	if len(vals) == 0 {
		for _, c := range criterion.All() {
			if e, ok := s[c]; ok {
				vals = append(vals, e.Score)
			}
		}
	}
	if len(vals) == 0 {
		return 0, 0
	}

	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))

	var sq float64
	for _, v := range vals {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(vals)))
}
