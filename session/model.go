package session

import "time"

// Session is the identity bound to the current client. A Session value is
// always well-formed: ID and Role are non-empty.
type Session struct {
	ID        string
	Name      string
	Role      string
	CreatedAt *time.Time
}

// Keys names the two persisted entries of a client namespace.
type Keys struct {
	Identity   string
	Credential string
}

// DefaultKeys returns the key names used by the browser client.
func DefaultKeys() Keys {
	return Keys{
		Identity:   "user",
		Credential: "token",
	}
}
