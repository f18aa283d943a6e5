package evaluation

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"cocorels-hq/kernel/pkg/report"
)

func TestTask_AwaitWithDeadline(t *testing.T) {
	p := NewPool(1, 4)
	defer p.Close()

	release := make(chan struct{})
	task, err := p.Submit(func() (*report.Report, error) {
		<-release
		return &report.Report{ID: "late"}, nil
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if _, err := task.AwaitWithDeadline(10 * time.Millisecond); !errors.Is(err, ErrTimedOut) {
		t.Fatalf("Expected ErrTimedOut, got %v", err)
	}

	// A timed-out wait does not cancel the task.
	close(release)
	r, err := task.AwaitWithDeadline(time.Second)
	if err != nil || r.ID != "late" {
		t.Errorf("AwaitWithDeadline() = %v, %v; want the late report", r, err)
	}
}

func TestTask_AwaitZeroDeadline(t *testing.T) {
	p := NewPool(1, 1)
	defer p.Close()

	task, _ := p.Submit(func() (*report.Report, error) { return &report.Report{ID: "now"}, nil })
	<-task.Done()

	if r, err := task.AwaitWithDeadline(0); err != nil || r.ID != "now" {
		t.Errorf("AwaitWithDeadline(0) on a finished task = %v, %v", r, err)
	}
}

func TestTask_Detach(t *testing.T) {
	p := NewPool(1, 4)
	defer p.Close()

	// Detached before the task finishes: the worker delivers the result.
	release := make(chan struct{})
	task, _ := p.Submit(func() (*report.Report, error) {
		<-release
		return &report.Report{ID: "background"}, nil
	})

	got := make(chan string, 1)
	task.Detach(func(r *report.Report, err error) { got <- r.ID })
	close(release)

	select {
	case id := <-got:
		if id != "background" {
			t.Errorf("detached result id = %q", id)
		}
	case <-time.After(time.Second):
		t.Fatal("detached callback never ran")
	}

	// Detached after the task finished: the callback runs immediately.
	var ran atomic.Bool
	task.Detach(func(*report.Report, error) { ran.Store(true) })
	if !ran.Load() {
		t.Error("Detach on a finished task should run the callback inline")
	}
}

func TestTask_PanicBecomesError(t *testing.T) {
	p := NewPool(1, 1)
	defer p.Close()

	task, _ := p.Submit(func() (*report.Report, error) { panic("boom") })

	_, err := task.AwaitWithDeadline(time.Second)
	var serr *SlowPathError
	if !errors.As(err, &serr) || serr.Stage != StagePanic {
		t.Fatalf("Expected a panic SlowPathError, got %v", err)
	}

	// The worker survives the panic.
	next, _ := p.Submit(func() (*report.Report, error) { return &report.Report{ID: "ok"}, nil })
	if r, err := next.AwaitWithDeadline(time.Second); err != nil || r.ID != "ok" {
		t.Errorf("worker did not survive the panic: %v, %v", r, err)
	}
}

func TestPool_SubmitSaturatedAndClosed(t *testing.T) {
	p := NewPool(1, 1)

	block := make(chan struct{})
	running, _ := p.Submit(func() (*report.Report, error) {
		<-block
		return &report.Report{}, nil
	})

	// Wait until the worker holds the first task so the queue is empty.
	deadline := time.Now().Add(time.Second)
	for p.QueueDepth() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	queued, err := p.Submit(func() (*report.Report, error) { return &report.Report{ID: "queued"}, nil })
	if err != nil {
		t.Fatalf("second Submit() error = %v", err)
	}
	if _, err := p.Submit(func() (*report.Report, error) { return nil, nil }); !errors.Is(err, ErrPoolSaturated) {
		t.Errorf("Expected ErrPoolSaturated, got %v", err)
	}

	close(block)
	p.Close()
	p.Close()

	// Close drained the queue.
	select {
	case <-running.Done():
	default:
		t.Error("running task not finished after Close")
	}
	if r, err := queued.AwaitWithDeadline(0); err != nil || r.ID != "queued" {
		t.Errorf("queued task not drained by Close: %v, %v", r, err)
	}

	if _, err := p.Submit(func() (*report.Report, error) { return nil, nil }); !errors.Is(err, ErrEngineClosed) {
		t.Errorf("Expected ErrEngineClosed after Close, got %v", err)
	}
}

func TestSlowPathError(t *testing.T) {
	cause := errors.New("model unavailable")
	err := &SlowPathError{Stage: StageAssess, SubTrait: "NC", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("SlowPathError should unwrap to its cause")
	}
	if got := err.Error(); got != "slow path failed [stage=assess, sub_trait=NC]: model unavailable" {
		t.Errorf("Error() = %q", got)
	}
	if got := (&SlowPathError{Stage: StagePanic, Cause: cause}).Error(); got != "slow path failed [stage=panic]: model unavailable" {
		t.Errorf("Error() = %q", got)
	}
}
