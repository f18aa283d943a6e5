// Package assess defines the trait assessor boundary of the kernel and the
// implementations shipped with it: a deterministic hash assessor, an
// OpenAI-compatible HTTP assessor and an expression-based predicate
// validator.
package assess

import (
	"context"
	"errors"
	"fmt"

	"cocorels-hq/kernel/pkg/action"
)

// Assessor scores one sub-trait of an action.
//
// Implementations may block, fail or return values outside [0,1]; the kernel
// bounds every call with a timeout and clamps the result. Assess must be
// safe for concurrent use.
type Assessor interface {
	Assess(ctx context.Context, code string, a action.Action) (float64, error)
}

// Func adapts a plain function to the Assessor interface.
type Func func(ctx context.Context, code string, a action.Action) (float64, error)

// Assess calls f.
func (f Func) Assess(ctx context.Context, code string, a action.Action) (float64, error) {
	return f(ctx, code, a)
}

// Validator decides whether a sub-trait predicate holds for an action
// context. Predicates are opaque to the kernel and only forwarded.
type Validator interface {
	Validate(predicate string, ctx map[string]any) bool
}

// ErrUnknownAssessor is returned by FromConfig for an unrecognised type.
var ErrUnknownAssessor = errors.New("unknown assessor type")

// AssessorError reports a failed assessment of a single sub-trait.
type AssessorError struct {
	// Assessor names the implementation ("hash", "http", ...).
	Assessor string

	// Code is the sub-trait being assessed.
	Code string

	// StatusCode is the HTTP status code (0 if not applicable).
	StatusCode int

	// Message is the error message.
	Message string

	// Cause is the underlying error (if any).
	Cause error
}

// Error implements the error interface.
func (e *AssessorError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("assessor %q failed on %s (status %d): %s", e.Assessor, e.Code, e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("assessor %q failed on %s: %s: %v", e.Assessor, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("assessor %q failed on %s: %s", e.Assessor, e.Code, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *AssessorError) Unwrap() error {
	return e.Cause
}
