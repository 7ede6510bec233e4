// Package jwt issues and verifies the bearer credentials a client presents to
// the branding endpoint. A credential carries the user id, the tenant the
// branding belongs to, and the user's role.
package jwt
