// Package prometheus exposes engine counters and the branding latency
// histogram as a client_golang Collector.
//
// The collector reads [goShell.Engine.MetricsSnapshot] on every scrape; it
// keeps no state of its own.
package prometheus
