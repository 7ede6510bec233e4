package session

import (
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrIdentityMalformed is returned when an identity record cannot be parsed.
var ErrIdentityMalformed = errors.New("identity record malformed")

// ErrIdentityIncomplete is returned when a parsed identity record is missing
// a required field.
var ErrIdentityIncomplete = errors.New("identity record incomplete")

type identityRecord struct {
	ID        *string `json:"id"`
	Name      *string `json:"name,omitempty"`
	Role      *string `json:"role"`
	CreatedAt *string `json:"createdAt"`
}

// createdAtLayouts are tried in order; a createdAt matching none of them is
// dropped and the session stays present.
var createdAtLayouts = []string{time.RFC3339, "2006-01-02"}

// DecodeIdentity parses a persisted identity record. The record must carry
// non-empty id and role strings. createdAt must be a string or null when
// present; an unreadable date leaves CreatedAt nil.
func DecodeIdentity(raw string) (*Session, error) {
	var rec *identityRecord
	if err := json.UnmarshalFromString(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityMalformed, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: null record", ErrIdentityIncomplete)
	}
	if rec.ID == nil || *rec.ID == "" {
		return nil, fmt.Errorf("%w: id", ErrIdentityIncomplete)
	}
	if rec.Role == nil || *rec.Role == "" {
		return nil, fmt.Errorf("%w: role", ErrIdentityIncomplete)
	}

	s := &Session{
		ID:   *rec.ID,
		Role: *rec.Role,
	}
	if rec.Name != nil {
		s.Name = *rec.Name
	}
	if rec.CreatedAt != nil {
		s.CreatedAt = parseCreatedAt(*rec.CreatedAt)
	}

	return s, nil
}

func parseCreatedAt(raw string) *time.Time {
	for _, layout := range createdAtLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return &ts
		}
	}
	return nil
}

// EncodeIdentity renders s in the persisted record format. Login
// collaborators use it to seed a namespace.
func EncodeIdentity(s *Session) (string, error) {
	if s == nil || s.ID == "" || s.Role == "" {
		return "", ErrIdentityIncomplete
	}
	rec := identityRecord{
		ID:   &s.ID,
		Name: &s.Name,
		Role: &s.Role,
	}
	if s.CreatedAt != nil {
		ts := s.CreatedAt.UTC().Format(time.RFC3339Nano)
		rec.CreatedAt = &ts
	}
	return json.MarshalToString(rec)
}
