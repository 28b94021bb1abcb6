package metrics

// Metrics collection for model calls

import (
	"context"
	stderrors "errors"
	"math"
	"sort"
	"sync"
	"time"
)

// Kind says which stage issued a model call.
type Kind string

const (
	KindBatch   Kind = "batch"
	KindSummary Kind = "summary"
)

// Metric is one model call attempt.
type Metric struct {
	Timestamp   time.Time `json:"timestamp"`
	Kind        Kind      `json:"kind"`
	BatchIndex  int       `json:"batch_index,omitempty"` // 0 for the summary call
	Attempt     int       `json:"attempt"`
	Success     bool      `json:"success"`
	LatencyMs   float64   `json:"latency_ms"`
	PromptBytes int       `json:"prompt_bytes"`
	ReplyBytes  int       `json:"reply_bytes"`
	Timeout     bool      `json:"timeout,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// NewMetric builds the Metric for one attempt that started at start.
func NewMetric(kind Kind, batchIndex, attempt int, start time.Time, promptBytes int, reply string, err error) Metric {
	m := Metric{
		Timestamp:   start,
		Kind:        kind,
		BatchIndex:  batchIndex,
		Attempt:     attempt,
		Success:     err == nil,
		LatencyMs:   float64(time.Since(start).Microseconds()) / 1000,
		PromptBytes: promptBytes,
		ReplyBytes:  len(reply),
	}
	if err != nil {
		m.Error = err.Error()
		m.Timeout = stderrors.Is(err, context.DeadlineExceeded)
	}
	return m
}

// Sink collects model call metrics. Safe for concurrent use.
type Sink struct {
	mu      sync.RWMutex
	metrics []Metric
}

// Summary contains aggregated statistics
type Summary struct {
	TotalCalls      int                 `json:"total_calls"`
	SuccessfulCalls int                 `json:"successful_calls"`
	FailedCalls     int                 `json:"failed_calls"`
	TimeoutCount    int                 `json:"timeouts"`
	PromptBytes     int                 `json:"prompt_bytes"`
	ReplyBytes      int                 `json:"reply_bytes"`
	MinLatencyMs    float64             `json:"min_latency_ms"`
	MaxLatencyMs    float64             `json:"max_latency_ms"`
	AvgLatencyMs    float64             `json:"avg_latency_ms"`
	P50LatencyMs    float64             `json:"p50_latency_ms"`
	P90LatencyMs    float64             `json:"p90_latency_ms"`
	P99LatencyMs    float64             `json:"p99_latency_ms"`
	ByKind          map[Kind]*KindStats `json:"by_kind"`
}

// KindStats contains statistics for one call kind
type KindStats struct {
	Count        int     `json:"count"`
	Success      int     `json:"success"`
	Failed       int     `json:"failed"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	sumLatency   float64
}

// NewSink creates a new metrics sink
func NewSink() *Sink {
	return &Sink{metrics: make([]Metric, 0)}
}

// Record records a new metric
func (s *Sink) Record(m Metric) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = append(s.metrics, m)
}

// GetMetrics returns a copy of all recorded metrics
func (s *Sink) GetMetrics() []Metric {
	s.mu.RLock()
	defer s.mu.RUnlock()

	metrics := make([]Metric, len(s.metrics))
	copy(metrics, s.metrics)
	return metrics
}

// GetSummary aggregates everything recorded so far. Latency statistics
// cover successful calls only.
func (s *Sink) GetSummary() *Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &Summary{ByKind: make(map[Kind]*KindStats)}
	latencies := make([]float64, 0, len(s.metrics))
	var total float64

	for _, m := range s.metrics {
		summary.TotalCalls++
		summary.PromptBytes += m.PromptBytes
		summary.ReplyBytes += m.ReplyBytes

		stats, ok := summary.ByKind[m.Kind]
		if !ok {
			stats = &KindStats{}
			summary.ByKind[m.Kind] = stats
		}
		stats.Count++

		if !m.Success {
			summary.FailedCalls++
			stats.Failed++
			if m.Timeout {
				summary.TimeoutCount++
			}
			continue
		}
		summary.SuccessfulCalls++
		stats.Success++
		stats.sumLatency += m.LatencyMs
		stats.AvgLatencyMs = stats.sumLatency / float64(stats.Success)

		latencies = append(latencies, m.LatencyMs)
		total += m.LatencyMs
		if summary.MinLatencyMs == 0 || m.LatencyMs < summary.MinLatencyMs {
			summary.MinLatencyMs = m.LatencyMs
		}
		if m.LatencyMs > summary.MaxLatencyMs {
			summary.MaxLatencyMs = m.LatencyMs
		}
	}

	if len(latencies) > 0 {
		summary.AvgLatencyMs = total / float64(len(latencies))
		p := computePercentiles(latencies)
		summary.P50LatencyMs, summary.P90LatencyMs, summary.P99LatencyMs = p[0], p[1], p[2]
	}
	return summary
}

func computePercentiles(values []float64) [3]float64 {
	var result [3]float64
	if len(values) == 0 {
		return result
	}
	sort.Float64s(values)
	result[0] = percentile(values, 0.50)
	result[1] = percentile(values, 0.90)
	result[2] = percentile(values, 0.99)
	return result
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
