// Package goShell renders a role-scoped application shell for an
// authenticated client and keeps it correct across route changes until the
// client logs out.
//
// An [Engine] holds the shared dependencies (persisted client store, branding
// fetcher, logger, metrics, audit). [Engine.Open] binds a [Shell] to one
// client namespace. A Shell is the composer: on every route transition it
// re-reads the session, recomputes the permitted navigation for the session's
// role, and starts a fresh branding fetch whose result is applied only if no
// newer transition has begun.
//
// # Architecture boundaries
//
// goShell is the public surface. The role policy and path resolver live in
// navigation/, session storage in session/, branding retrieval in branding/.
// HTML rendering (view/) and the HTTP host (web/) are consumers of [View]
// snapshots and never reach into Shell state.
//
// # What this package must NOT do
//
//   - Surface errors to the rendered shell. Every failure becomes a state
//     value: no session, default branding, or a text logo fallback.
//   - Defer logout behind a pending branding fetch.
//   - Cache branding across transitions.
package goShell
