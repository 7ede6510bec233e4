// Package navigation holds the static role navigation policy and the path
// resolver that turns policy entries into concrete, highlightable links.
//
// # Architecture boundaries
//
// The policy is a closed table compiled into the binary. Every [Role] in the
// enumeration owns exactly one ordered entry list; any other role value
// resolves to an empty list, never an error.
//
// # What this package must NOT do
//
//   - Read sessions, stores, or request state.
//   - Sort, filter, or otherwise reorder policy entries.
//   - Match routes by prefix or pattern. Highlighting is exact string equality.
package navigation
