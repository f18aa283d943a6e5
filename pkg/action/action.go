// Package action holds the immutable value the kernel scores.
package action

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"maps"
	"slices"
)

// Action is a proposed action under evaluation. The zero value is an empty
// action with no context. Actions are immutable once constructed: New
// deep-copies the caller's context, and accessors hand out copies.
type Action struct {
	description string
	context     map[string]any
}

// New constructs an Action, deep-copying ctx so later mutation of the source
// mapping (or of nested maps and slices) has no effect.
func New(description string, ctx map[string]any) Action {
	return Action{
		description: description,
		context:     copyMap(ctx),
	}
}

// Description returns the free-text description.
func (a Action) Description() string {
	return a.description
}

// Context returns a deep copy of the action context.
func (a Action) Context() map[string]any {
	return copyMap(a.context)
}

// Value returns a single context value without copying the whole map.
// Nested maps and slices are still copied.
func (a Action) Value(key string) (any, bool) {
	v, ok := a.context[key]
	if !ok {
		return nil, false
	}
	return copyValue(v), true
}

// Has reports whether key is present in the context, regardless of value.
func (a Action) Has(key string) bool {
	_, ok := a.context[key]
	return ok
}

// Keys returns the context keys in sorted order.
func (a Action) Keys() []string {
	return slices.Sorted(maps.Keys(a.context))
}

// Signature returns a stable hex digest of the description and context.
// encoding/json sorts map keys, so equal actions always share a signature.
func (a Action) Signature() string {
	sum := a.digest()
	return hex.EncodeToString(sum[:])
}

// DilemmaHash derives a 64-bit identifier from the action's signature. Callers
// that already track a dilemma id may pass their own instead.
func (a Action) DilemmaHash() uint64 {
	sum := a.digest()
	return binary.BigEndian.Uint64(sum[:8])
}

func (a Action) digest() [32]byte {
	ctx, err := json.Marshal(a.context)
	if err != nil {
		// Unencodable values (channels, funcs) fall back to the key set.
		ctx, _ = json.Marshal(a.Keys())
	}
	h := sha256.New()
	h.Write([]byte(a.description))
	h.Write([]byte{'|'})
	h.Write(ctx)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// MarshalJSON renders the action as {"description":..., "context":...}.
func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Description string         `json:"description"`
		Context     map[string]any `json:"context,omitempty"`
	}{a.description, a.context})
}

// UnmarshalJSON decodes the form produced by MarshalJSON.
func (a *Action) UnmarshalJSON(b []byte) error {
	var raw struct {
		Description string         `json:"description"`
		Context     map[string]any `json:"context"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*a = New(raw.Description, raw.Context)
	return nil
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	case []string:
		return slices.Clone(t)
	case []int:
		return slices.Clone(t)
	case []float64:
		return slices.Clone(t)
	case []bool:
		return slices.Clone(t)
	default:
		return v
	}
}
