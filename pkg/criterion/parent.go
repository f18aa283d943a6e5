package criterion

import (
	"fmt"
	"strings"
)

// parents maps mid-level aggregate names used by sub-trait configuration to
// the criterion they roll up into.
var parents = map[string]Criterion{
	"duty":       HonourDuty,
	"honour":     HonourDuty,
	"honor":      HonourDuty,
	"community":  Fairness,
	"fairness":   Fairness,
	"care":       Kindness,
	"kindness":   Kindness,
	"wisdom":     Wisdom,
	"harmony":    Balance,
	"balance":    Balance,
	"respect":    Respect,
	"honesty":    Truthfulness,
	"truth":      Truthfulness,
	"autonomy":   AutonomyLimiter,
	"corridor":   CorridorSafety,
	"safety":     AISafety,
	"validation": PredicateValidation,
}

// FromParent resolves a sub-trait's parent name to a criterion. Mid-level
// aliases ("Duty", "Community") and criterion names ("HONR", "Fairness") are
// both accepted.
func FromParent(parent string) (Criterion, error) {
	key := strings.ToLower(strings.TrimSpace(parent))
	if key == "" {
		return 0, fmt.Errorf("empty parent criterion")
	}
	if c, ok := parents[key]; ok {
		return c, nil
	}
	if c, err := Parse(parent); err == nil {
		return c, nil
	}
	return 0, fmt.Errorf("parent %q does not map to any criterion", parent)
}
