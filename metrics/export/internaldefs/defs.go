package internaldefs

import (
	"strconv"

	goShell "github.com/MrEthical07/goShell"
)

// CounterDef names one engine counter.
type CounterDef struct {
	ID   goShell.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram.
type HistogramDef struct {
	ID   goShell.MetricID
	Name string
	Help string
}

// AuditDropped is the counter name for dropped audit events.
const AuditDropped = "goshell_audit_dropped_total"

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: goShell.MetricTransition, Name: "goshell_transitions_total", Help: "Route transitions, including session-change refreshes."},
	{ID: goShell.MetricSessionAbsent, Name: "goshell_session_absent_total", Help: "Transitions that found no well-formed session."},
	{ID: goShell.MetricRoleUnrecognized, Name: "goshell_role_unrecognized_total", Help: "Sessions whose role has no navigation policy."},
	{ID: goShell.MetricBrandingResolved, Name: "goshell_branding_resolved_total", Help: "Branding fetch results applied."},
	{ID: goShell.MetricBrandingDegraded, Name: "goshell_branding_degraded_total", Help: "Branding fetch failures settled on default branding."},
	{ID: goShell.MetricBrandingNoCredential, Name: "goshell_branding_no_credential_total", Help: "Transitions degraded without a branding fetch."},
	{ID: goShell.MetricBrandingStaleDiscarded, Name: "goshell_branding_stale_discarded_total", Help: "Branding results discarded because a newer transition started."},
	{ID: goShell.MetricLogoFallback, Name: "goshell_logo_fallback_total", Help: "Logos that failed to load and fell back to text."},
	{ID: goShell.MetricLogout, Name: "goshell_logout_total", Help: "Logout operations."},
	{ID: goShell.MetricTeardownFailure, Name: "goshell_teardown_failure_total", Help: "Logouts whose session teardown failed."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goShell.MetricBrandingLatency, Name: "goshell_branding_fetch_latency_seconds", Help: "Branding fetch latency."},
}

// HistogramUpperBounds are the engine's finite latency bounds in seconds.
// The engine keeps one more bucket for +Inf.
var HistogramUpperBounds = func() []float64 {
	out := make([]float64, len(goShell.LatencyBounds))
	for i, b := range goShell.LatencyBounds {
		out[i] = b.Seconds()
	}
	return out
}()

// BucketLabels renders each bucket's upper bound, +Inf included, in the
// form Prometheus uses for the le label.
func BucketLabels() []string {
	out := make([]string, 0, len(HistogramUpperBounds)+1)
	for _, b := range HistogramUpperBounds {
		out = append(out, strconv.FormatFloat(b, 'g', -1, 64))
	}
	return append(out, "+Inf")
}

// Buckets holds one count per engine latency bucket, +Inf last.
type Buckets [len(goShell.LatencyBounds) + 1]uint64

// NormalizeBuckets copies raw into a fixed-size array, zero-filling missing
// buckets.
func NormalizeBuckets(raw []uint64) Buckets {
	var out Buckets
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw Buckets) Buckets {
	var out Buckets
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
