package monitoring

import (
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

// MetricsCollector defines the interface for collecting and reporting metrics
type MetricsCollector interface {
	// Counters
	IncrementCounter(name string, tags map[string]string)

	// Histograms/Timing
	RecordTiming(name string, duration time.Duration, tags map[string]string)
	RecordValue(name string, value float64, tags map[string]string)

	// Flush any buffered metrics
	Flush() error
}

// NoOpMetricsCollector is a no-op implementation of MetricsCollector
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) IncrementCounter(name string, tags map[string]string) {}
func (NoOpMetricsCollector) RecordTiming(name string, duration time.Duration, tags map[string]string) {
}
func (NoOpMetricsCollector) RecordValue(name string, value float64, tags map[string]string) {}
func (NoOpMetricsCollector) Flush() error                                                   { return nil }

// InMemoryMetricsCollector keeps every sample in memory. It is meant for
// tests and for the inspect command's summary output.
type InMemoryMetricsCollector struct {
	mu       sync.Mutex
	counters map[string]int64
	timings  map[string][]time.Duration
	values   map[string][]float64
}

// NewInMemoryMetricsCollector creates a new in-memory metrics collector
func NewInMemoryMetricsCollector() *InMemoryMetricsCollector {
	return &InMemoryMetricsCollector{
		counters: make(map[string]int64),
		timings:  make(map[string][]time.Duration),
		values:   make(map[string][]float64),
	}
}

func (m *InMemoryMetricsCollector) IncrementCounter(name string, tags map[string]string) {
	key := keyWithTags(name, tags)
	m.mu.Lock()
	m.counters[key]++
	m.mu.Unlock()
}

func (m *InMemoryMetricsCollector) RecordTiming(name string, duration time.Duration, tags map[string]string) {
	key := keyWithTags(name, tags)
	m.mu.Lock()
	m.timings[key] = append(m.timings[key], duration)
	m.mu.Unlock()
}

func (m *InMemoryMetricsCollector) RecordValue(name string, value float64, tags map[string]string) {
	key := keyWithTags(name, tags)
	m.mu.Lock()
	m.values[key] = append(m.values[key], value)
	m.mu.Unlock()
}

func (m *InMemoryMetricsCollector) Flush() error {
	return nil
}

// keyWithTags builds "name,k1=v1,k2=v2" with tags sorted by key.
func keyWithTags(name string, tags map[string]string) string {
	if len(tags) == 0 {
		return name
	}
	var b strings.Builder
	b.WriteString(name)
	for _, k := range slices.Sorted(maps.Keys(tags)) {
		b.WriteByte(',')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(tags[k])
	}
	return b.String()
}

// GetCounter returns the value of a counter
func (m *InMemoryMetricsCollector) GetCounter(name string, tags map[string]string) int64 {
	key := keyWithTags(name, tags)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[key]
}

// GetTimings returns all recorded timings
func (m *InMemoryMetricsCollector) GetTimings(name string, tags map[string]string) []time.Duration {
	key := keyWithTags(name, tags)
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.timings[key])
}

// GetValues returns all recorded values
func (m *InMemoryMetricsCollector) GetValues(name string, tags map[string]string) []float64 {
	key := keyWithTags(name, tags)
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.values[key])
}

// Counters returns a snapshot of every counter keyed by name and tags.
func (m *InMemoryMetricsCollector) Counters() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.counters)
}

// Reset clears all metrics
func (m *InMemoryMetricsCollector) Reset() {
	m.mu.Lock()
	clear(m.counters)
	clear(m.timings)
	clear(m.values)
	m.mu.Unlock()
}
