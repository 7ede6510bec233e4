// Package web hosts goShell behind HTTP.
//
// Each browser client is identified by an opaque cookie whose value is the
// client's session namespace. A [Hub] keeps one [goShell.Shell] per client
// and closes shells that have been idle longer than the configured TTL.
// [NewServer] wires the hub to a chi router that renders pages with the
// view package and exposes the shell's own endpoints (branding panel, logo
// error report, logout, metrics).
package web
