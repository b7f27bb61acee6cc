package clipboard

import (
	"context"
	"errors"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/clipkit/pkg/clipboard/cliperr"
)

// MetricsCollector receives the Client's observations: one RecordOperation
// per public call, one RecordAttempt per mechanism tried, and the running
// listener count from pkg/paste and pkg/binding.
type MetricsCollector interface {
	RecordOperation(op string, duration time.Duration, err error)
	RecordSize(op string, size int)
	RecordError(op string, err error)
	RecordTimeout(op string)
	RecordAttempt(mechanism string, err error)
	RecordFallback(op, mechanism string)
	RecordListenerCount(count int)
	GetMetrics() MetricsSnapshot
}

// MetricsSnapshot is a copy of a collector's state.
type MetricsSnapshot struct {
	Operations      map[string]*OperationMetrics
	Mechanisms      map[string]*MechanismMetrics
	Errors          map[string]uint64
	Timeouts        map[string]uint64
	Fallbacks       map[string]uint64
	ListenerCount   int
	CollectionStart time.Time
	CollectionEnd   time.Time
}

// OperationMetrics summarizes one public operation ("copy", "read", ...).
type OperationMetrics struct {
	Count      uint64
	TotalTime  time.Duration
	MinTime    time.Duration
	MaxTime    time.Duration
	AvgTime    time.Duration
	TotalBytes uint64
	MinBytes   uint64
	MaxBytes   uint64
	ErrorCount uint64
}

// MechanismMetrics counts attempts against one tier.
type MechanismMetrics struct {
	Attempts uint64
	Failures uint64
}

// DefaultMetricsCollector keeps every series in memory behind one mutex.
// Recording is cheap next to spawning a process or touching the OS
// clipboard, so contention is not a concern.
type DefaultMetricsCollector struct {
	mu         sync.Mutex
	started    time.Time
	operations map[string]*opSeries
	mechanisms map[string]*MechanismMetrics
	errors     map[string]uint64
	timeouts   map[string]uint64
	fallbacks  map[string]uint64
	listeners  int
}

// opSeries accumulates one operation. Durations and sizes are tracked
// separately because sizes are recorded before the operation runs.
type opSeries struct {
	calls, failures uint64
	dur             span[time.Duration]
	bytes           span[uint64]
}

// span tracks the total, minimum and maximum of a series of samples.
type span[T time.Duration | uint64] struct {
	n        uint64
	total    T
	min, max T
}

func (s *span[T]) add(v T) {
	if s.n == 0 || v < s.min {
		s.min = v
	}
	if v > s.max {
		s.max = v
	}
	s.total += v
	s.n++
}

// NewDefaultMetricsCollector creates an empty collector.
func NewDefaultMetricsCollector() *DefaultMetricsCollector {
	return &DefaultMetricsCollector{
		started:    time.Now(),
		operations: map[string]*opSeries{},
		mechanisms: map[string]*MechanismMetrics{},
		errors:     map[string]uint64{},
		timeouts:   map[string]uint64{},
		fallbacks:  map[string]uint64{},
	}
}

// series returns the accumulator for op. Callers hold m.mu.
func (m *DefaultMetricsCollector) series(op string) *opSeries {
	s := m.operations[op]
	if s == nil {
		s = &opSeries{}
		m.operations[op] = s
	}
	return s
}

// RecordOperation records one completed call of op.
func (m *DefaultMetricsCollector) RecordOperation(op string, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.series(op)
	s.calls++
	s.dur.add(duration)
	if err != nil {
		s.failures++
	}
}

// RecordSize records the payload size of a call of op. Negative sizes are
// ignored.
func (m *DefaultMetricsCollector) RecordSize(op string, size int) {
	if size < 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series(op).bytes.add(uint64(size))
}

// RecordError counts err under "<op>_<kind>".
func (m *DefaultMetricsCollector) RecordError(op string, err error) {
	if err == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[op+"_"+categorizeError(err)]++
}

// RecordTimeout counts a deadline hit by op.
func (m *DefaultMetricsCollector) RecordTimeout(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeouts[op]++
}

// RecordAttempt records one invocation of a mechanism.
func (m *DefaultMetricsCollector) RecordAttempt(mechanism string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mm := m.mechanisms[mechanism]
	if mm == nil {
		mm = &MechanismMetrics{}
		m.mechanisms[mechanism] = mm
	}
	mm.Attempts++
	if err != nil {
		mm.Failures++
	}
}

// RecordFallback records a chain of op falling through to mechanism.
func (m *DefaultMetricsCollector) RecordFallback(op, mechanism string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks[op+"->"+mechanism]++
}

// RecordListenerCount stores the number of running listeners.
func (m *DefaultMetricsCollector) RecordListenerCount(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = max(count, 0)
}

// GetMetrics returns a copy of everything recorded so far. Operations that
// only have sizes recorded are included with a zero Count.
func (m *DefaultMetricsCollector) GetMetrics() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetricsSnapshot{
		Operations:      make(map[string]*OperationMetrics, len(m.operations)),
		Mechanisms:      make(map[string]*MechanismMetrics, len(m.mechanisms)),
		Errors:          maps.Clone(m.errors),
		Timeouts:        maps.Clone(m.timeouts),
		Fallbacks:       maps.Clone(m.fallbacks),
		ListenerCount:   m.listeners,
		CollectionStart: m.started,
		CollectionEnd:   time.Now(),
	}
	for op, s := range m.operations {
		snap.Operations[op] = s.metrics()
	}
	for name, mm := range m.mechanisms {
		c := *mm
		snap.Mechanisms[name] = &c
	}
	return snap
}

func (s *opSeries) metrics() *OperationMetrics {
	om := &OperationMetrics{
		Count:      s.calls,
		ErrorCount: s.failures,
		TotalTime:  s.dur.total,
		MinTime:    s.dur.min,
		MaxTime:    s.dur.max,
		TotalBytes: s.bytes.total,
		MinBytes:   s.bytes.min,
		MaxBytes:   s.bytes.max,
	}
	if s.dur.n > 0 {
		om.AvgTime = s.dur.total / time.Duration(s.dur.n)
	}
	return om
}

// categorizeError groups errors by kind for metrics keys.
func categorizeError(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	if kind := cliperr.KindOf(err); kind != "" {
		return strings.ReplaceAll(string(kind), " ", "_")
	}
	return "other"
}

// NoOpMetricsCollector discards everything. It is the Client default.
type NoOpMetricsCollector struct{}

func (n *NoOpMetricsCollector) RecordOperation(_ string, _ time.Duration, _ error) {}
func (n *NoOpMetricsCollector) RecordSize(_ string, _ int)                         {}
func (n *NoOpMetricsCollector) RecordError(_ string, _ error)                      {}
func (n *NoOpMetricsCollector) RecordTimeout(_ string)                             {}
func (n *NoOpMetricsCollector) RecordAttempt(_ string, _ error)                    {}
func (n *NoOpMetricsCollector) RecordFallback(_, _ string)                         {}
func (n *NoOpMetricsCollector) RecordListenerCount(_ int)                          {}
func (n *NoOpMetricsCollector) GetMetrics() MetricsSnapshot                        { return MetricsSnapshot{} }
