package routing

import (
	"sync"
	"sync/atomic"
	"time"
)

// AtomicRoutingStats implements thread-safe routing statistics using atomic operations.
// All counters are updated atomically for lock-free performance.
type AtomicRoutingStats struct {
	// totalDecisions is the total number of routing decisions made
	totalDecisions atomic.Int64

	// perPath tracks decisions per path name
	perPath sync.Map // map[string]*atomic.Int64

	// perReason tracks decisions per rule that fired
	perReason sync.Map // map[string]*atomic.Int64

	// thresholdUpdates counts runtime threshold swaps
	thresholdUpdates atomic.Int64

	// lastResetTime is when statistics were last reset
	lastResetTime time.Time

	// mu protects lastResetTime
	mu sync.RWMutex
}

// NewAtomicRoutingStats creates a new atomic routing statistics tracker.
func NewAtomicRoutingStats() *AtomicRoutingStats {
	return &AtomicRoutingStats{
		lastResetTime: time.Now(),
	}
}

// IncrementTotal increments the total decision counter.
func (s *AtomicRoutingStats) IncrementTotal() {
	s.totalDecisions.Add(1)
}

// IncrementPath increments the counter for a path.
func (s *AtomicRoutingStats) IncrementPath(path string) {
	increment(&s.perPath, path)
}

// IncrementReason increments the counter for a decision reason.
func (s *AtomicRoutingStats) IncrementReason(reason string) {
	increment(&s.perReason, reason)
}

// IncrementThresholdUpdates increments the threshold update counter.
func (s *AtomicRoutingStats) IncrementThresholdUpdates() {
	s.thresholdUpdates.Add(1)
}

func increment(m *sync.Map, key string) {
	val, _ := m.LoadOrStore(key, &atomic.Int64{})
	val.(*atomic.Int64).Add(1)
}

func collect(m *sync.Map) map[string]int64 {
	out := make(map[string]int64)
	m.Range(func(key, value any) bool {
		out[key.(string)] = value.(*atomic.Int64).Load()
		return true
	})
	return out
}

// Snapshot returns a point-in-time snapshot of the statistics.
// The returned RoutingStats struct is safe to read without locks.
func (s *AtomicRoutingStats) Snapshot() *RoutingStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &RoutingStats{
		TotalDecisions:   s.totalDecisions.Load(),
		PerPath:          collect(&s.perPath),
		PerReason:        collect(&s.perReason),
		ThresholdUpdates: s.thresholdUpdates.Load(),
		LastResetTime:    s.lastResetTime,
	}
}

// Reset resets all statistics to zero.
func (s *AtomicRoutingStats) Reset() {
	s.totalDecisions.Store(0)
	s.thresholdUpdates.Store(0)
	s.perPath.Clear()
	s.perReason.Clear()

	s.mu.Lock()
	s.lastResetTime = time.Now()
	s.mu.Unlock()
}
