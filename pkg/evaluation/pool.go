package evaluation

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cocorels-hq/kernel/pkg/report"
)

// Task is the handle for one slow-path evaluation running in the pool.
type Task struct {
	run  func() (*report.Report, error)
	done chan struct{}

	mu       sync.Mutex
	finished bool
	report   *report.Report
	err      error
	detached func(*report.Report, error)
}

func newTask(run func() (*report.Report, error)) *Task {
	return &Task{run: run, done: make(chan struct{})}
}

// Done is closed when the task has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// AwaitWithDeadline waits up to d for the result. When d passes first it
// returns ErrTimedOut and the task keeps running; its result can then only
// be observed through Detach.
func (t *Task) AwaitWithDeadline(d time.Duration) (*report.Report, error) {
	if d <= 0 {
		select {
		case <-t.done:
			return t.report, t.err
		default:
			return nil, ErrTimedOut
		}
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-t.done:
		return t.report, t.err
	case <-timer.C:
		return nil, ErrTimedOut
	}
}

// Detach hands the eventual result to fn instead of a waiting caller. If the
// task has already finished, fn runs immediately on the calling goroutine;
// otherwise it runs on the worker that finishes the task.
func (t *Task) Detach(fn func(*report.Report, error)) {
	t.mu.Lock()
	if !t.finished {
		t.detached = fn
		t.mu.Unlock()
		return
	}
	r, err := t.report, t.err
	t.mu.Unlock()

	fn(r, err)
}

func (t *Task) execute() {
	var (
		r   *report.Report
		err error
	)
	func() {
		defer func() {
			if p := recover(); p != nil {
				err = &SlowPathError{Stage: StagePanic, Cause: fmt.Errorf("%v", p)}
			}
		}()
		r, err = t.run()
	}()
	t.finish(r, err)
}

func (t *Task) finish(r *report.Report, err error) {
	t.mu.Lock()
	t.report, t.err = r, err
	t.finished = true
	fn := t.detached
	t.mu.Unlock()

	close(t.done)

	if fn != nil {
		fn(r, err)
	}
}

// Pool is a fixed set of workers draining a bounded queue. Submit never
// blocks.
type Pool struct {
	tasks   chan *Task
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	workers int
	logger  *slog.Logger
}

// NewPool starts workers goroutines over a queue of queueSize pending tasks.
func NewPool(workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	p := &Pool{
		tasks:   make(chan *Task, queueSize),
		workers: workers,
		logger:  slog.Default().With("component", "evaluation.pool"),
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}

	p.logger.Debug("worker pool started", "workers", workers, "queue_size", queueSize)
	return p
}

// Submit enqueues run. It returns ErrPoolSaturated when the queue is full
// and ErrEngineClosed after Close.
func (p *Pool) Submit(run func() (*report.Report, error)) (*Task, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrEngineClosed
	}

	t := newTask(run)
	select {
	case p.tasks <- t:
		return t, nil
	default:
		return nil, ErrPoolSaturated
	}
}

// QueueDepth returns the number of tasks waiting for a worker.
func (p *Pool) QueueDepth() int {
	return len(p.tasks)
}

// Close stops accepting tasks, lets the workers finish everything already
// queued and waits for them. Safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.logger.Info("draining worker pool", "pending", len(p.tasks))
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for t := range p.tasks {
		t.execute()
	}
}
