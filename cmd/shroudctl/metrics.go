// metrics.go - Timing and counter collection for client operations
package main

import (
	"fmt"
	"sync"
	"time"
)

// Predefined metric names
const (
	MetricProofTime    = "proof_generation_time"
	MetricSyncTime     = "tree_sync_time"
	MetricDecryptTime  = "decrypt_time"
	MetricNotesCreated = "notes_created"
	MetricNotesSpent   = "notes_spent"
	MetricErrorCount   = "error_count"
)

// MetricsCollector accumulates counters and timing samples for one run.
type MetricsCollector struct {
	mu       sync.Mutex
	counters map[string]int64
	timings  map[string][]time.Duration
}

// NewMetricsCollector creates an empty collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters: make(map[string]int64),
		timings:  make(map[string][]time.Duration),
	}
}

// Add increments a counter by n
func (mc *MetricsCollector) Add(name string, n int64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.counters[name] += n
}

// RecordDuration appends a timing sample
func (mc *MetricsCollector) RecordDuration(name string, d time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.timings[name] = append(mc.timings[name], d)
}

// Time runs fn and records its duration under name
func (mc *MetricsCollector) Time(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	mc.RecordDuration(name, time.Since(start))
	if err != nil {
		mc.Add(MetricErrorCount, 1)
	}
	return err
}

// Summary renders the collected metrics as printable lines
func (mc *MetricsCollector) Summary() []string {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	lines := make([]string, 0, len(mc.counters)+len(mc.timings))
	for name, v := range mc.counters {
		lines = append(lines, fmt.Sprintf("%s: %d", name, v))
	}
	for name, samples := range mc.timings {
		var total time.Duration
		min, max := samples[0], samples[0]
		for _, s := range samples {
			total += s
			if s < min {
				min = s
			}
			if s > max {
				max = s
			}
		}
		avg := total / time.Duration(len(samples))
		lines = append(lines, fmt.Sprintf("%s: n=%d avg=%s min=%s max=%s",
			name, len(samples), avg, min, max))
	}
	return lines
}
