package assess

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"

	"cocorels-hq/kernel/pkg/action"
)

// hashScale is the integer resolution of hash-derived scores.
const hashScale = 30000

// Hash is a deterministic assessor for development and tests. It derives a
// score from sha256(code, description, context) so the same action always
// scores the same, and different sub-traits score differently.
type Hash struct{}

// NewHash returns a deterministic hash assessor.
func NewHash() Hash {
	return Hash{}
}

// Assess implements Assessor.
func (Hash) Assess(ctx context.Context, code string, a action.Action) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	ctxJSON, err := json.Marshal(a.Context())
	if err != nil {
		return 0, &AssessorError{Assessor: "hash", Code: code, Message: "context not serialisable", Cause: err}
	}

	h := sha256.New()
	h.Write([]byte(code))
	h.Write([]byte(a.Description()))
	h.Write(ctxJSON)
	sum := h.Sum(nil)

	r := binary.BigEndian.Uint32(sum[:4]) % (hashScale + 1)
	return float64(r) / hashScale, nil
}
