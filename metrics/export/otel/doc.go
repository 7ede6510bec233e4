// Package otel publishes goShell counters and the branding latency histogram
// through an OpenTelemetry Meter supplied by the caller.
//
// [NewExporter] registers one Int64ObservableCounter per counter. Each
// histogram becomes two Int64ObservableGauges, <name>_bucket carrying the
// cumulative count per le attribute and <name>_count. A single callback reads
// [goShell.Engine.MetricsSnapshot] on each collection cycle.
package otel
