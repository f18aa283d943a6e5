// Package taxonomy holds the immutable sub-trait configuration the slow path
// runs against: each sub-trait's parent criterion, weight and validation
// predicate, plus the sparse symmetric interaction table between them.
package taxonomy

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"cocorels-hq/kernel/pkg/config"
	"cocorels-hq/kernel/pkg/criterion"
)

// SubTrait is one configured micro-factor.
type SubTrait struct {
	Code      string
	Parent    string
	Criterion criterion.Criterion
	Weight    float64
	Predicate string
}

// Interaction is one entry of the interaction table, normalized so A < B.
type Interaction struct {
	A      string
	B      string
	Weight float64
}

type pairKey struct{ a, b string }

func keyOf(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a, b}
}

// Taxonomy is read-only after construction and safe for concurrent use.
type Taxonomy struct {
	traits       map[string]SubTrait
	codes        []string
	byCriterion  map[criterion.Criterion][]string
	interactions map[pairKey]float64
	pairs        []Interaction
}

// New validates and indexes traits and interactions.
func New(traits []SubTrait, interactions []Interaction) (*Taxonomy, error) {
	t := &Taxonomy{
		traits:       make(map[string]SubTrait, len(traits)),
		byCriterion:  make(map[criterion.Criterion][]string),
		interactions: make(map[pairKey]float64, len(interactions)),
	}

	var errs []error
	for _, st := range traits {
		if st.Code == "" {
			errs = append(errs, errors.New("sub-trait with empty code"))
			continue
		}
		if _, dup := t.traits[st.Code]; dup {
			errs = append(errs, fmt.Errorf("duplicate sub-trait %q", st.Code))
			continue
		}
		if strings.TrimSpace(st.Predicate) == "" {
			errs = append(errs, fmt.Errorf("sub-trait %q has no validation predicate", st.Code))
		}
		if !(st.Weight > 0) {
			errs = append(errs, fmt.Errorf("sub-trait %q has non-positive weight %v", st.Code, st.Weight))
		}
		if !st.Criterion.Valid() {
			c, err := criterion.FromParent(st.Parent)
			if err != nil {
				errs = append(errs, fmt.Errorf("sub-trait %q: %w", st.Code, err))
			}
			st.Criterion = c
		}
		t.traits[st.Code] = st
	}

	for _, in := range interactions {
		_, okA := t.traits[in.A]
		_, okB := t.traits[in.B]
		if !okA || !okB || in.A == in.B {
			errs = append(errs, fmt.Errorf("invalid interaction %s/%s", in.A, in.B))
			continue
		}
		k := keyOf(in.A, in.B)
		if _, dup := t.interactions[k]; dup {
			errs = append(errs, fmt.Errorf("duplicate interaction %s/%s", k.a, k.b))
			continue
		}
		t.interactions[k] = in.Weight
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	for code, st := range t.traits {
		t.codes = append(t.codes, code)
		t.byCriterion[st.Criterion] = append(t.byCriterion[st.Criterion], code)
	}
	slices.Sort(t.codes)
	for c := range t.byCriterion {
		slices.Sort(t.byCriterion[c])
	}
	for k, w := range t.interactions {
		t.pairs = append(t.pairs, Interaction{A: k.a, B: k.b, Weight: w})
	}
	slices.SortFunc(t.pairs, func(x, y Interaction) int {
		if c := strings.Compare(x.A, y.A); c != 0 {
			return c
		}
		return strings.Compare(x.B, y.B)
	})

	return t, nil
}

// FromConfig builds the taxonomy from the sub_traits and interactions
// sections.
func FromConfig(cfg *config.Config) (*Taxonomy, error) {
	traits := make([]SubTrait, 0, len(cfg.SubTraits))
	for code, st := range cfg.SubTraits {
		traits = append(traits, SubTrait{
			Code:      code,
			Parent:    st.Parent,
			Weight:    st.Weight,
			Predicate: st.Predicate,
		})
	}
	pairs := make([]Interaction, 0, len(cfg.Interactions))
	for _, in := range cfg.Interactions {
		pairs = append(pairs, Interaction{A: in.A, B: in.B, Weight: in.Weight})
	}
	return New(traits, pairs)
}

// Len returns the number of sub-traits.
func (t *Taxonomy) Len() int {
	return len(t.codes)
}

// Codes returns all sub-trait codes, sorted.
func (t *Taxonomy) Codes() []string {
	return slices.Clone(t.codes)
}

// Get looks up a sub-trait by code.
func (t *Taxonomy) Get(code string) (SubTrait, bool) {
	st, ok := t.traits[code]
	return st, ok
}

// ForCriterion returns the sub-traits that roll up into c, sorted by code.
func (t *Taxonomy) ForCriterion(c criterion.Criterion) []SubTrait {
	codes := t.byCriterion[c]
	out := make([]SubTrait, 0, len(codes))
	for _, code := range codes {
		out = append(out, t.traits[code])
	}
	return out
}

// Interaction returns the weight between a and b; pairs not in the table
// are neutral and report ok=false.
func (t *Taxonomy) Interaction(a, b string) (float64, bool) {
	w, ok := t.interactions[keyOf(a, b)]
	return w, ok
}

// Interactions returns every configured pair, sorted.
func (t *Taxonomy) Interactions() []Interaction {
	return slices.Clone(t.pairs)
}
