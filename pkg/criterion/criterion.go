// Package criterion defines the closed set of ethical criteria ("corels")
// scored by the kernel, together with their stable numeric codes, default
// routing affinity and the mid-level aggregate names sub-traits map onto.
package criterion

import (
	"fmt"
	"strings"
)

// Criterion is one of the fixed top-level criteria. The underlying value is
// the criterion's stable opcode.
type Criterion uint8

// Criteria, keyed by opcode. The set is closed: codes outside this list do
// not name a criterion.
const (
	HonourDuty          Criterion = 0x10
	Fairness            Criterion = 0x20
	Kindness            Criterion = 0x30
	Wisdom              Criterion = 0x40
	Balance             Criterion = 0x50
	Respect             Criterion = 0x60
	PredicateValidation Criterion = 0x70
	Truthfulness        Criterion = 0xB0
	AutonomyLimiter     Criterion = 0xC0
	CorridorSafety      Criterion = 0xD0
	AISafety            Criterion = 0xE0
)

// Affinity is the default path a criterion prefers when the router lands in
// the borderline complexity band.
type Affinity int

const (
	// AffinityFast lets the router break the tie with hash jitter.
	AffinityFast Affinity = iota
	// AffinitySlow always escalates borderline calls to the slow path.
	AffinitySlow
)

// String returns the affinity name.
func (a Affinity) String() string {
	if a == AffinitySlow {
		return "slow"
	}
	return "fast"
}

type definition struct {
	name     string
	label    string
	affinity Affinity
}

var definitions = map[Criterion]definition{
	HonourDuty:          {"HONR", "Honour/Duty", AffinitySlow},
	Fairness:            {"FAIR", "Fairness", AffinitySlow},
	Kindness:            {"KIND", "Kindness", AffinityFast},
	Wisdom:              {"WSDM", "Wisdom", AffinitySlow},
	Balance:             {"BAL", "Balance", AffinitySlow},
	Respect:             {"RESP", "Respect", AffinitySlow},
	PredicateValidation: {"VALIDATE", "Predicate Validation", AffinitySlow},
	Truthfulness:        {"AI.TRUTH", "Truthfulness", AffinitySlow},
	AutonomyLimiter:     {"AUTONOMY.LIM", "Autonomy Limiter", AffinitySlow},
	CorridorSafety:      {"SAFE.CORRIDOR", "Safety Corridor", AffinityFast},
	AISafety:            {"AI.SAFE", "AI Safety", AffinitySlow},
}

// ordered lists every criterion in ascending code order.
var ordered = []Criterion{
	HonourDuty, Fairness, Kindness, Wisdom, Balance, Respect,
	PredicateValidation, Truthfulness, AutonomyLimiter, CorridorSafety, AISafety,
}

// All returns every criterion in ascending code order. The returned slice is
// a fresh copy.
func All() []Criterion {
	out := make([]Criterion, len(ordered))
	copy(out, ordered)
	return out
}

// Count returns the size of the criterion set.
func Count() int {
	return len(ordered)
}

// FromCode resolves a numeric code to its criterion.
func FromCode(code int) (Criterion, bool) {
	if code < 0 || code > 0xFF {
		return 0, false
	}
	c := Criterion(code)
	_, ok := definitions[c]
	return c, ok
}

// Parse resolves a criterion from its short name ("HONR") or label
// ("Honour/Duty"), case-insensitively.
func Parse(s string) (Criterion, error) {
	s = strings.TrimSpace(s)
	for _, c := range ordered {
		d := definitions[c]
		if strings.EqualFold(s, d.name) || strings.EqualFold(s, d.label) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown criterion %q", s)
}

// Valid reports whether c is a member of the closed set.
func (c Criterion) Valid() bool {
	_, ok := definitions[c]
	return ok
}

// Code returns the criterion's numeric opcode.
func (c Criterion) Code() int {
	return int(c)
}

// String returns the short name, e.g. "HONR".
func (c Criterion) String() string {
	if d, ok := definitions[c]; ok {
		return d.name
	}
	return fmt.Sprintf("Criterion(0x%02X)", uint8(c))
}

// Label returns the human readable name, e.g. "Honour/Duty".
func (c Criterion) Label() string {
	if d, ok := definitions[c]; ok {
		return d.label
	}
	return c.String()
}

// Affinity returns the default path affinity. Unknown criteria are FAST.
func (c Criterion) Affinity() Affinity {
	if d, ok := definitions[c]; ok {
		return d.affinity
	}
	return AffinityFast
}

// MarshalText renders the criterion by short name so it can key JSON maps.
func (c Criterion) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid criterion 0x%02X", uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText parses a short name or label.
func (c *Criterion) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// AffinityOf returns the affinity for a raw code; unknown codes are FAST.
func AffinityOf(code int) Affinity {
	c, ok := FromCode(code)
	if !ok {
		return AffinityFast
	}
	return c.Affinity()
}
