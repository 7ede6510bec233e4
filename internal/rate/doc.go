// Package rate provides a Redis-backed fixed-window counter.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Keys are
// <prefix>:<id>; the first hit in a window starts it, and the window ends
// when the key expires.
//
// # What this package must NOT do
//
//   - Decide what is limited (callers choose the id and budget).
//   - Be imported outside the goShell module.
package rate
