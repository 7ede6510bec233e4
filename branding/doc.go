// Package branding resolves tenant display branding for the shell.
//
// Branding moves through a three-phase lifecycle per route transition:
// [Loading], then exactly one of [Resolved] or [Degraded]. Degraded always
// carries the default product identity. Fetch failures never surface to the
// end user; callers log them and render the default.
//
// # What this package must NOT do
//
//   - Track route transitions or discard stale results. The shell owns the
//     generation counter that decides whether a result still applies.
//   - Retry fetches or cache branding across transitions.
package branding
