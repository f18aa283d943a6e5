package taxonomy

import (
	"testing"

	"cocorels-hq/kernel/pkg/config"
	"cocorels-hq/kernel/pkg/criterion"
)

func TestFromConfig_Defaults(t *testing.T) {
	tax, err := FromConfig(config.Default())
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}

	if tax.Len() != 12 {
		t.Errorf("Expected 12 sub-traits, got %d", tax.Len())
	}

	duty := tax.ForCriterion(criterion.HonourDuty)
	if len(duty) != 3 || duty[0].Code != "CA" || duty[1].Code != "IL" || duty[2].Code != "TC" {
		t.Errorf("Unexpected duty group: %+v", duty)
	}
	if got := len(tax.ForCriterion(criterion.Wisdom)); got != 3 {
		t.Errorf("Expected 3 wisdom sub-traits, got %d", got)
	}
	if got := len(tax.ForCriterion(criterion.Kindness)); got != 0 {
		t.Errorf("Expected no kindness sub-traits, got %d", got)
	}

	w, ok := tax.Interaction("NC", "TR")
	if !ok || w != -0.4 {
		t.Errorf("Expected symmetric lookup -0.4, got %v (%v)", w, ok)
	}
	if _, ok := tax.Interaction("TC", "CA"); ok {
		t.Error("Expected TC/CA to be neutral")
	}
	if got := len(tax.Interactions()); got != 3 {
		t.Errorf("Expected 3 interactions, got %d", got)
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		traits []SubTrait
		pairs  []Interaction
	}{
		{"missing predicate", []SubTrait{{Code: "A", Parent: "Duty", Weight: 1}}, nil},
		{"zero weight", []SubTrait{{Code: "A", Parent: "Duty", Predicate: "p"}}, nil},
		{"unknown parent", []SubTrait{{Code: "A", Parent: "Nope", Weight: 1, Predicate: "p"}}, nil},
		{"duplicate", []SubTrait{
			{Code: "A", Parent: "Duty", Weight: 1, Predicate: "p"},
			{Code: "A", Parent: "Duty", Weight: 1, Predicate: "p"},
		}, nil},
		{"dangling interaction", []SubTrait{{Code: "A", Parent: "Duty", Weight: 1, Predicate: "p"}},
			[]Interaction{{A: "A", B: "B", Weight: -0.5}}},
		{"reversed duplicate interaction", []SubTrait{
			{Code: "A", Parent: "Duty", Weight: 1, Predicate: "p"},
			{Code: "B", Parent: "Duty", Weight: 1, Predicate: "p"},
		}, []Interaction{{A: "A", B: "B", Weight: -0.5}, {A: "B", B: "A", Weight: 0.3}}},
		{"repeated interaction", []SubTrait{
			{Code: "A", Parent: "Duty", Weight: 1, Predicate: "p"},
			{Code: "B", Parent: "Duty", Weight: 1, Predicate: "p"},
		}, []Interaction{{A: "A", B: "B", Weight: -0.5}, {A: "A", B: "B", Weight: -0.5}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.traits, tt.pairs); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestCodes_ReturnsCopy(t *testing.T) {
	tax, err := FromConfig(config.Default())
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}
	codes := tax.Codes()
	codes[0] = "mutated"
	if tax.Codes()[0] == "mutated" {
		t.Error("Codes() exposes internal slice")
	}
}
