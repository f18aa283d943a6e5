package evaluation

import "time"

// Observer receives the engine's metric hooks. Implementations must be safe
// for concurrent use and must not block.
type Observer interface {
	// EvaluationCompleted is called once per Evaluate call.
	EvaluationCompleted(path, state string, duration time.Duration)

	// ConflictsResolved is called with the number of flagged pairs of a
	// slow path that found any.
	ConflictsResolved(n int)

	// MomentumChanged is called with the momentum after it was lowered or
	// reset.
	MomentumChanged(v float64)

	// DeferredCompleted is called when a slow path finishes after its
	// caller timed out.
	DeferredCompleted(state string)

	// QueueDepth reports the pool queue depth after a submit.
	QueueDepth(n int)
}

type nopObserver struct{}

func (nopObserver) EvaluationCompleted(string, string, time.Duration) {}
func (nopObserver) ConflictsResolved(int)                             {}
func (nopObserver) MomentumChanged(float64)                           {}
func (nopObserver) DeferredCompleted(string)                          {}
func (nopObserver) QueueDepth(int)                                    {}
