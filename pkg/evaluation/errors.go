package evaluation

import (
	"errors"
	"fmt"
)

var (
	// ErrTimedOut is returned by Task.AwaitWithDeadline when the deadline
	// passes first. The task keeps running.
	ErrTimedOut = errors.New("slow path did not finish before the deadline")

	// ErrPoolSaturated is returned by Pool.Submit when the queue is full.
	ErrPoolSaturated = errors.New("slow path pool saturated")

	// ErrEngineClosed is returned once the engine or its pool is closed.
	ErrEngineClosed = errors.New("evaluation engine closed")
)

// Slow path stages reported by SlowPathError.
const (
	StageAssess = "assess"
	StagePanic  = "panic"
)

// SlowPathError wraps a failure inside the slow path with the stage it
// happened in.
type SlowPathError struct {
	Stage    string // StageAssess or StagePanic
	SubTrait string // Sub-trait being assessed, if any
	Cause    error  // Underlying error
}

// Error implements the error interface.
func (e *SlowPathError) Error() string {
	if e.SubTrait != "" {
		return fmt.Sprintf("slow path failed [stage=%s, sub_trait=%s]: %v", e.Stage, e.SubTrait, e.Cause)
	}
	return fmt.Sprintf("slow path failed [stage=%s]: %v", e.Stage, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *SlowPathError) Unwrap() error {
	return e.Cause
}
