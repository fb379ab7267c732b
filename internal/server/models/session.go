package models

import (
	"errors"
	"time"
)

// Session is a server-side session record.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
}

// SessionPayload is the value stored in the session store under a session id.
// Only the user reference is kept; the role is always re-read from the user
// record.
type SessionPayload struct {
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

var errEmptyUserID = errors.New("session payload has no user id")

// Validate checks the payload read back from a store.
func (p SessionPayload) Validate() error {
	if p.UserID == "" {
		return errEmptyUserID
	}
	return nil
}

// Expired reports whether the payload expiry is at or before now.
// A zero expiry never expires.
func (p SessionPayload) Expired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && !now.Before(p.ExpiresAt)
}
