// Package fastpath implements the deterministic heuristic evaluator used
// for low-complexity calls and as the fallback whenever the slow path
// cannot deliver.
//
// Each criterion has one fixed rule reading specific context keys. Rules are
// total: missing, nil or mistyped values resolve to the rule's safe default,
// never to an error. Evaluation does no I/O and runs in constant time
// regardless of configuration size.
package fastpath

import (
	"strings"

	"cocorels-hq/kernel/pkg/action"
	"cocorels-hq/kernel/pkg/criterion"
	"cocorels-hq/kernel/pkg/report"
)

// JustificationPrefix marks every fast-path justification.
const JustificationPrefix = "fast-path heuristic: "

// rule scores one criterion. ok reports whether the rule found evidence.
type rule func(a action.Action) (score float64, why string, ok bool)

// Evaluator is the fast path. The zero value is not usable; call New.
type Evaluator struct {
	neutral float64
	rules   map[criterion.Criterion]rule
}

// New returns an evaluator that assigns neutral to criteria without a rule.
func New(neutral float64) *Evaluator {
	return &Evaluator{
		neutral: neutral,
		rules: map[criterion.Criterion]rule{
			criterion.HonourDuty:      honourDuty,
			criterion.Fairness:        fairness,
			criterion.Kindness:        kindness,
			criterion.Wisdom:          wisdom,
			criterion.Balance:         balance,
			criterion.Respect:         respect,
			criterion.Truthfulness:    truthfulness,
			criterion.AutonomyLimiter: autonomy,
			criterion.AISafety:        aiSafety,
		},
	}
}

// Evaluate scores every criterion. Identical actions always produce
// identical scores.
func (e *Evaluator) Evaluate(a action.Action) report.Scores {
	out := make(report.Scores, criterion.Count())
	for _, c := range criterion.All() {
		r, ok := e.rules[c]
		if !ok {
			out[c] = report.Evaluation{
				Score:         e.neutral,
				Justification: JustificationPrefix + "no rule, neutral default",
				Defaulted:     true,
			}
			continue
		}

		score, why, found := r(a)
		if !found {
			score = e.neutral
		}
		out[c] = report.Evaluation{
			Score:         report.Clamp(score, e.neutral),
			Justification: JustificationPrefix + why,
			Defaulted:     !found,
		}
	}
	return out
}

func honourDuty(a action.Action) (float64, string, bool) {
	if containsFold(stringOf(a, "legal_status"), "illegal") {
		return 0.05, "legal_status marks the action illegal", true
	}
	return 0.85, "no illegality indicated", true
}

func fairness(a action.Action) (float64, string, bool) {
	if a.Has("preferential_treatment") {
		return 0.2, "preferential treatment present", true
	}
	return 0.8, "no preferential treatment", true
}

func kindness(a action.Action) (float64, string, bool) {
	if listHas(a, "consequences", "harm") {
		return 0.15, "consequences include harm", true
	}
	return 0.9, "no harmful consequences listed", true
}

func wisdom(a action.Action) (float64, string, bool) {
	if containsFold(stringOf(a, "goal"), "short-term") && listHas(a, "risks", "long-term risk") {
		return 0.3, "short-term goal with long-term risk", true
	}
	return 0.85, "no short-term/long-term tension", true
}

func balance(a action.Action) (float64, string, bool) {
	if listHas(a, "effects", "disrupts_ecosystem") {
		return 0.1, "effects disrupt the ecosystem", true
	}
	return 0.8, "no ecosystem disruption", true
}

func respect(a action.Action) (float64, string, bool) {
	if boolOf(a, "violates_autonomy") {
		return 0.05, "action violates autonomy", true
	}
	return 0.95, "autonomy respected", true
}

func truthfulness(a action.Action) (float64, string, bool) {
	if strings.EqualFold(stringOf(a, "deception_level"), "high") {
		return 0.1, "high deception level", true
	}
	return 0, "no deception signal, neutral default", false
}

func autonomy(a action.Action) (float64, string, bool) {
	if boolOf(a, "authorization_bypassed") {
		return 0.05, "authorization bypassed", true
	}
	return 0, "no authorization signal, neutral default", false
}

func aiSafety(a action.Action) (float64, string, bool) {
	if boolOf(a, "resource_hoarding") {
		return 0.05, "resource hoarding", true
	}
	if strings.EqualFold(stringOf(a, "human_cost"), "extreme") {
		return 0.05, "extreme human cost", true
	}
	return 0, "no safety signal, neutral default", false
}

// stringOf returns the string value at key, or "" for absent or non-string
// values.
func stringOf(a action.Action, key string) string {
	v, _ := a.Value(key)
	s, _ := v.(string)
	return s
}

// boolOf is true only for a real boolean true.
func boolOf(a action.Action, key string) bool {
	v, _ := a.Value(key)
	b, _ := v.(bool)
	return b
}

// listHas reports whether the value at key is a list with an element equal
// (case-insensitively) to want. A bare string is treated as a one-element
// list.
func listHas(a action.Action, key, want string) bool {
	v, _ := a.Value(key)
	switch t := v.(type) {
	case string:
		return strings.EqualFold(t, want)
	case []string:
		for _, s := range t {
			if strings.EqualFold(s, want) {
				return true
			}
		}
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok && strings.EqualFold(s, want) {
				return true
			}
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
