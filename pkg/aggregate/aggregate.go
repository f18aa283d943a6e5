// Package aggregate folds sub-trait scores into per-criterion scores.
package aggregate

import (
	"fmt"
	"strings"

	"cocorels-hq/kernel/pkg/criterion"
	"cocorels-hq/kernel/pkg/report"
	"cocorels-hq/kernel/pkg/taxonomy"
)

// Aggregator computes, for each criterion, the weighted mean of the
// sub-traits that roll up into it, with weights normalized to sum to 1 within
// the group. Criteria with no scored sub-traits get the neutral default.
type Aggregator struct {
	tax     *taxonomy.Taxonomy
	neutral float64
}

// New creates an aggregator over tax.
func New(tax *taxonomy.Taxonomy, neutral float64) *Aggregator {
	return &Aggregator{tax: tax, neutral: neutral}
}

// Aggregate returns an evaluation for every criterion. Sub-traits missing
// from scores are left out of their group and the remaining weights are
// renormalized.
func (a *Aggregator) Aggregate(scores map[string]float64) report.Scores {
	out := make(report.Scores, criterion.Count())

	for _, c := range criterion.All() {
		var sum, total float64
		var used []string

		for _, st := range a.tax.ForCriterion(c) {
			v, ok := scores[st.Code]
			if !ok {
				continue
			}
			sum += report.Clamp(v, a.neutral) * st.Weight
			total += st.Weight
			used = append(used, st.Code)
		}

		if total <= 0 {
			out[c] = report.Evaluation{
				Score:         a.neutral,
				Justification: "slow path: no sub-traits, neutral default",
				Defaulted:     true,
			}
			continue
		}

		out[c] = report.Evaluation{
			Score:         report.Clamp(sum/total, a.neutral),
			Justification: fmt.Sprintf("slow path: weighted aggregate of %s", strings.Join(used, ", ")),
		}
	}

	return out
}
