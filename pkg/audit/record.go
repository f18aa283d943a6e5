package audit

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"cocorels-hq/kernel/pkg/audit/signing"
	"cocorels-hq/kernel/pkg/report"
)

// ErrContentMismatch is returned by Verify when a record's content no longer
// matches its content hash.
var ErrContentMismatch = errors.New("audit record content does not match its hash")

// FromReport builds an unsealed record for r. ID, RecordedAt and the
// integrity fields are left for the recorder to fill in.
func FromReport(r *report.Report) *Record {
	rec := &Record{
		EvaluationID:    r.ID,
		StartedAt:       r.StartedAt.UTC(),
		CompletedAt:     r.CompletedAt.UTC(),
		ActionSignature: r.ActionSignature,
		DilemmaHash:     fmt.Sprintf("%016x", r.DilemmaHash),
		CriterionCode:   r.CriterionCode,
		Path:            r.Path.String(),
		RouteReason:     string(r.RouteReason),
		State:           string(r.State),
		Deferred:        r.Deferred,
		FallbackReason:  r.FallbackReason,
		Scores:          make(map[string]float64, len(r.Evaluations)),
		Conflicts:       len(r.Conflicts),
		MCDA:            r.MCDA,
		Balance:         r.Balance,
		MomentumAfter:   r.MomentumAfter,
	}

	for c, e := range r.Evaluations {
		rec.Scores[c.String()] = e.Score
		if e.Defaulted {
			rec.Defaulted = append(rec.Defaulted, c.String())
		}
	}
	sort.Strings(rec.Defaulted)

	return rec
}

// Canonical returns the bytes covered by the content hash: the record's JSON
// encoding without ContentHash and Signature.
func (r *Record) Canonical() ([]byte, error) {
	c := *r
	c.ContentHash = ""
	c.Signature = nil
	return json.Marshal(&c)
}

// Seal computes the content hash with hashAlg and signs it with s.
func (r *Record) Seal(hashAlg string, s signing.Signer) error {
	r.HashAlgorithm = hashAlg
	r.SignatureAlgorithm = s.Algorithm()
	r.KeyID = signing.KeyID(s.PublicKey())

	content, err := r.Canonical()
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	digest, err := signing.Digest(hashAlg, content)
	if err != nil {
		return err
	}
	sig, err := s.Sign(digest)
	if err != nil {
		return fmt.Errorf("failed to sign record: %w", err)
	}

	r.ContentHash = hex.EncodeToString(digest)
	r.Signature = sig
	return nil
}

// Verify recomputes the content hash and checks the signature against the
// raw public key pub.
func (r *Record) Verify(pub []byte) error {
	content, err := r.Canonical()
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	digest, err := signing.Digest(r.HashAlgorithm, content)
	if err != nil {
		return err
	}
	if hex.EncodeToString(digest) != r.ContentHash {
		return ErrContentMismatch
	}
	return signing.Verify(r.SignatureAlgorithm, pub, digest, r.Signature)
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	c := *r
	if r.Scores != nil {
		c.Scores = make(map[string]float64, len(r.Scores))
		for k, v := range r.Scores {
			c.Scores[k] = v
		}
	}
	if r.Defaulted != nil {
		c.Defaulted = append([]string(nil), r.Defaulted...)
	}
	if r.Signature != nil {
		c.Signature = append([]byte(nil), r.Signature...)
	}
	return &c
}
