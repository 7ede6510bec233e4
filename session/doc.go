// Package session reads and tears down the persisted client session that the
// shell renders for.
//
// A client's persisted state lives in one namespace of a string-keyed [Store]:
// a JSON identity record under the identity key and an opaque bearer
// credential under the credential key. [Resolver] is the only reader the shell
// uses. It never fails: a missing, unparsable, or structurally invalid record
// is reported as "no session".
//
// # Architecture boundaries
//
// This package owns the [Store] implementations (Redis and in-memory), the
// identity record codec, and the change notifications emitted when a
// namespace is written. It does NOT create sessions, validate credentials, or
// decide navigation.
//
// # What this package must NOT do
//
//   - Import the root shell package or navigation (no upward imports).
//   - Write to a namespace except through Set (collaborators) or Teardown.
package session
