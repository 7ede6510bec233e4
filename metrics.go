package goShell

import (
	"sync/atomic"
	"time"
)

// MetricID defines a public type used by goShell APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricTransition counts route transitions, including refreshes.
	MetricTransition MetricID = iota
	// MetricSessionAbsent counts transitions that found no well-formed session.
	MetricSessionAbsent
	// MetricRoleUnrecognized counts sessions whose role has no policy entry.
	MetricRoleUnrecognized
	// MetricBrandingResolved counts applied branding fetch results.
	MetricBrandingResolved
	// MetricBrandingDegraded counts transitions settled on default branding
	// after a failed fetch.
	MetricBrandingDegraded
	// MetricBrandingNoCredential counts transitions degraded without a fetch.
	MetricBrandingNoCredential
	// MetricBrandingStaleDiscarded counts fetch results dropped because a
	// newer transition had begun.
	MetricBrandingStaleDiscarded
	// MetricLogoFallback counts render-time logo failures.
	MetricLogoFallback
	// MetricLogout counts logout operations.
	MetricLogout
	// MetricTeardownFailure counts logouts whose store teardown errored.
	MetricTeardownFailure
	// MetricBrandingLatency is the branding fetch latency histogram.
	MetricBrandingLatency
	metricIDCount
)

// LatencyBounds are the upper bounds of the latency histogram buckets. A
// final bucket holds everything slower.
var LatencyBounds = [...]time.Duration{
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
	time.Second,
	2500 * time.Millisecond,
}

const histBucketCount = len(LatencyBounds) + 1

// counter sits on its own cache line; transitions from many shells bump the
// same few counters.
type counter struct {
	atomic.Uint64
	_ [56]byte
}

type latencyHistogram struct {
	buckets [histBucketCount]atomic.Uint64
	sum     atomic.Int64
}

func (h *latencyHistogram) observe(d time.Duration) {
	i := 0
	for i < len(LatencyBounds) && d > LatencyBounds[i] {
		i++
	}
	h.buckets[i].Add(1)
	h.sum.Add(int64(d))
}

// Metrics holds the engine's in-process counters and the branding latency
// histogram. A nil *Metrics records nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]counter
	latency       latencyHistogram
}

// MetricsSnapshot is a point-in-time copy of [Metrics]. Histograms hold
// per-bucket (non-cumulative) counts aligned with [LatencyBounds];
// HistogramSums holds the total observed duration per histogram.
type MetricsSnapshot struct {
	Counters      map[MetricID]uint64
	Histograms    map[MetricID][]uint64
	HistogramSums map[MetricID]time.Duration
}

func emptySnapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Counters:      map[MetricID]uint64{},
		Histograms:    map[MetricID][]uint64{},
		HistogramSums: map[MetricID]time.Duration{},
	}
}

// NewMetrics creates counters per cfg. Disabled metrics ignore writes.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters record.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram records.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to counter id.
func (m *Metrics) Inc(id MetricID) {
	if !m.Enabled() || id >= metricIDCount || id == MetricBrandingLatency {
		return
	}
	m.counters[id].Add(1)
}

// Observe records d in the histogram for id. Only [MetricBrandingLatency]
// carries a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if !m.LatencyEnabled() || id != MetricBrandingLatency {
		return
	}
	m.latency.observe(d)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot copies every counter and, when enabled, the latency histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := emptySnapshot()
	if !m.Enabled() {
		return s
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricBrandingLatency {
			continue
		}
		s.Counters[id] = m.counters[id].Load()
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := range buckets {
			buckets[i] = m.latency.buckets[i].Load()
		}
		s.Histograms[MetricBrandingLatency] = buckets
		s.HistogramSums[MetricBrandingLatency] = time.Duration(m.latency.sum.Load())
	}
	return s
}
