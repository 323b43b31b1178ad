package annex

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems.
type MetricsCollector interface {
	// RecordAdd is called after each batch insert.
	// count is the number of items attempted, err is nil if successful.
	RecordAdd(count int, duration time.Duration, err error)

	// RecordSearch is called after each search.
	// k is the number of neighbors requested, fallback reports whether the
	// full-scan path was taken because the candidate union held fewer than
	// k members.
	RecordSearch(k int, fallback bool, duration time.Duration, err error)

	// RecordDelete is called after each delete.
	// removed is the number of ids actually found and removed.
	RecordDelete(requested, removed int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAdd(int, time.Duration, error)          {}
func (NoopMetricsCollector) RecordSearch(int, bool, time.Duration, error) {}
func (NoopMetricsCollector) RecordDelete(int, int, time.Duration)         {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddCount         atomic.Int64
	AddItems         atomic.Int64
	AddErrors        atomic.Int64
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchFallbacks  atomic.Int64
	SearchTotalNanos atomic.Int64
	DeleteCount      atomic.Int64
	DeleteRemoved    atomic.Int64
}

// RecordAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAdd(count int, duration time.Duration, err error) {
	b.AddCount.Add(1)
	b.AddItems.Add(int64(count))
	if err != nil {
		b.AddErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(k int, fallback bool, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if fallback {
		b.SearchFallbacks.Add(1)
	}
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(requested, removed int, duration time.Duration) {
	b.DeleteCount.Add(1)
	b.DeleteRemoved.Add(int64(removed))
}

// AvgSearchNanos returns the mean search latency in nanoseconds.
func (b *BasicMetricsCollector) AvgSearchNanos() int64 {
	count := b.SearchCount.Load()
	if count == 0 {
		return 0
	}
	return b.SearchTotalNanos.Load() / count
}
