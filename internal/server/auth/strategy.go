package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/partsinventory/internal/common"
	"github.com/dmitrijs2005/partsinventory/internal/logging"
	"github.com/dmitrijs2005/partsinventory/internal/server/models"
)

// Reason tells why an authentication attempt failed.
type Reason int

const (
	ReasonInvalidUsername Reason = iota + 1
	ReasonInvalidPassword
	ReasonInternalError
)

func (r Reason) String() string {
	switch r {
	case ReasonInvalidUsername:
		return "invalid_username"
	case ReasonInvalidPassword:
		return "invalid_password"
	case ReasonInternalError:
		return "internal_error"
	default:
		return "unknown"
	}
}

// OutcomeSuccess is the Recorder outcome of a successful attempt.
const OutcomeSuccess = "success"

// PublicFailureMessage is the only text shown to callers for rejected
// credentials, whichever factor was wrong.
const PublicFailureMessage = "Invalid username or password"

// Failure is a failed authentication attempt. It matches
// common.ErrInvalidCredentials or common.ErrorInternal with errors.Is,
// depending on the reason.
type Failure struct {
	Reason Reason
	Err    error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("authentication failed (%s): %v", f.Reason, f.Err)
	}
	return fmt.Sprintf("authentication failed (%s)", f.Reason)
}

func (f *Failure) Unwrap() []error {
	sentinel := common.ErrInvalidCredentials
	if f.Reason == ReasonInternalError {
		sentinel = common.ErrorInternal
	}
	if f.Err == nil {
		return []error{sentinel}
	}
	return []error{sentinel, f.Err}
}

// PublicMessage is safe to show to the client.
func (f *Failure) PublicMessage() string {
	if f.Reason == ReasonInternalError {
		return "Internal server error"
	}
	return PublicFailureMessage
}

// Authenticator verifies username and password pairs.
type Authenticator struct {
	users   IdentityStore
	hasher  CredentialHasher
	timeout time.Duration
	log     logging.Logger
	rec     Recorder

	// verified against for unknown usernames so both failure paths pay
	// for one derivation
	dummyHash string
	dummySalt string
}

// NewAuthenticator builds an Authenticator. timeout bounds each identity
// store lookup; zero disables it. rec may be nil.
func NewAuthenticator(users IdentityStore, hasher CredentialHasher, timeout time.Duration, log logging.Logger, rec Recorder) (*Authenticator, error) {
	dummyPassword, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, fmt.Errorf("generate dummy credential: %w", err)
	}
	hash, salt, err := hasher.Derive(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("derive dummy credential: %w", err)
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Authenticator{
		users:     users,
		hasher:    hasher,
		timeout:   timeout,
		log:       log,
		rec:       rec,
		dummyHash: hash,
		dummySalt: salt,
	}, nil
}

// Authenticate returns the identity for valid credentials or a *Failure.
// Lookup errors, including timeouts, are ReasonInternalError and never a
// credential rejection.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*models.Identity, error) {
	user, err := a.lookup(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			a.hasher.Verify(password, a.dummyHash, a.dummySalt)
			return nil, a.reject(ctx, username, ReasonInvalidUsername)
		}
		a.log.Error(ctx, "identity lookup failed", "username", username, "error", err)
		a.rec.AuthAttempt(ReasonInternalError.String())
		return nil, &Failure{Reason: ReasonInternalError, Err: err}
	}

	if !a.hasher.Verify(password, user.PasswordHash, user.PasswordSalt) {
		return nil, a.reject(ctx, username, ReasonInvalidPassword)
	}

	a.log.Info(ctx, "login succeeded", "username", username, "user_id", user.ID)
	a.rec.AuthAttempt(OutcomeSuccess)
	return user.Identity(), nil
}

func (a *Authenticator) lookup(ctx context.Context, username string) (*models.User, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	return a.users.FindByUsername(ctx, username)
}

func (a *Authenticator) reject(ctx context.Context, username string, reason Reason) error {
	a.log.Warn(ctx, "login rejected", "username", username, "reason", reason.String())
	a.rec.AuthAttempt(reason.String())
	return &Failure{Reason: reason}
}
