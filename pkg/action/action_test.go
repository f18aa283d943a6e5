package action

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNew_CopiesContext(t *testing.T) {
	src := map[string]any{
		"legal_status": "legal",
		"consequences": []any{"benefit"},
		"meta":         map[string]any{"owner": "ops"},
		"effects":      []string{"none"},
	}
	a := New("deploy", src)

	src["legal_status"] = "illegal"
	src["consequences"].([]any)[0] = "harm"
	src["meta"].(map[string]any)["owner"] = "mallory"
	src["effects"].([]string)[0] = "disrupts_ecosystem"
	src["added"] = true

	want := map[string]any{
		"legal_status": "legal",
		"consequences": []any{"benefit"},
		"meta":         map[string]any{"owner": "ops"},
		"effects":      []string{"none"},
	}
	if diff := cmp.Diff(want, a.Context()); diff != "" {
		t.Errorf("Context changed after caller mutation (-want +got):\n%s", diff)
	}
}

func TestContext_ReturnsCopy(t *testing.T) {
	a := New("x", map[string]any{"k": "v"})
	ctx := a.Context()
	ctx["k"] = "changed"
	if v, _ := a.Value("k"); v != "v" {
		t.Errorf("Expected v, got %v", v)
	}
}

func TestSignature_Stable(t *testing.T) {
	a := New("x", map[string]any{"b": 2, "a": 1})
	b := New("x", map[string]any{"a": 1, "b": 2})
	if a.Signature() != b.Signature() {
		t.Error("Expected equal signatures for equal actions")
	}
	if a.DilemmaHash() != b.DilemmaHash() {
		t.Error("Expected equal dilemma hashes for equal actions")
	}

	c := New("y", map[string]any{"a": 1, "b": 2})
	if a.Signature() == c.Signature() {
		t.Error("Expected different signatures for different descriptions")
	}
}

func TestSignature_UnencodableValue(t *testing.T) {
	a := New("x", map[string]any{"ch": make(chan int)})
	if a.Signature() == "" {
		t.Error("Expected a signature even for unencodable context")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	a := New("deploy", map[string]any{"violates_autonomy": true})
	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var out Action
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if out.Description() != "deploy" || !out.Has("violates_autonomy") {
		t.Errorf("Unexpected decoded action: %+v", out.Context())
	}
}
