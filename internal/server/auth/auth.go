// Package auth implements credential authentication, the session identity
// lifecycle and the authorization checks applied to resolved identities.
//
// Persistence is consumed through the IdentityStore and SessionStore
// interfaces; both report an absent key with common.ErrorNotFound.
package auth

import (
	"context"
	"time"

	"github.com/dmitrijs2005/partsinventory/internal/server/models"
)

// CredentialHasher derives and verifies salted password hashes.
type CredentialHasher interface {
	Derive(password string) (hash, salt string, err error)
	Verify(password, hash, salt string) bool
}

// IdentityStore looks up user records.
type IdentityStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// SessionStore is an opaque key-value store with per-key expiry.
type SessionStore interface {
	Set(ctx context.Context, sid string, payload []byte, ttl time.Duration) error
	Get(ctx context.Context, sid string) ([]byte, error)
	Del(ctx context.Context, sid string) error
}

// Recorder receives authentication and session resolution outcomes.
type Recorder interface {
	AuthAttempt(outcome string)
	SessionResolved(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) AuthAttempt(string)     {}
func (nopRecorder) SessionResolved(string) {}

// Session resolution outcomes reported to the Recorder.
const (
	SessionValid  = "valid"
	SessionAbsent = "absent"
	SessionError  = "error"
)
