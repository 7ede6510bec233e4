// Package middleware adapts bearer credential verification to net/http.
//
// [Bearer] reads the Authorization header, verifies the credential and stores
// the claims in the request context; [RequireRole] narrows a route to a set of
// roles. Both compose with chi's Use and With.
//
// This package does not parse tokens itself; verification is delegated to a
// [Verifier] such as *jwt.Manager.
package middleware
