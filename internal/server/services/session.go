package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/partsinventory/internal/common"
	"github.com/dmitrijs2005/partsinventory/internal/server/auth"
	"github.com/dmitrijs2005/partsinventory/internal/server/models"
)

// Authenticator verifies credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*models.Identity, error)
}

// SessionIdentityManager maps session ids to identities.
type SessionIdentityManager interface {
	Serialize(ctx context.Context, identity *models.Identity) (*models.Session, error)
	Deserialize(ctx context.Context, sid string) (*models.Identity, error)
	Destroy(ctx context.Context, sid string) error
}

// LoginResult is a successful login: the identity, the stored session and
// the signed value to hand to the client as a cookie.
type LoginResult struct {
	Identity *models.Identity
	Session  *models.Session
	Token    string
}

// SessionService drives the login and logout flow over signed session
// tokens.
type SessionService struct {
	authn    Authenticator
	sessions SessionIdentityManager
	secret   []byte
}

// NewSessionService constructs a SessionService. secret signs session tokens.
func NewSessionService(authn Authenticator, sessions SessionIdentityManager, secret []byte) *SessionService {
	return &SessionService{authn: authn, sessions: sessions, secret: secret}
}

// Login authenticates and opens a new session. Each call opens an
// independent session; existing sessions of the user stay valid.
// Credential failures are returned as *auth.Failure.
func (s *SessionService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	identity, err := s.authn.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Serialize(ctx, identity)
	if err != nil {
		return nil, err
	}

	token, err := auth.SignSessionToken(sess.ID, s.secret, sess.ExpiresAt)
	if err != nil {
		_ = s.sessions.Destroy(context.WithoutCancel(ctx), sess.ID)
		return nil, errors.Join(common.ErrorInternal, err)
	}

	return &LoginResult{Identity: identity, Session: sess, Token: token}, nil
}

// Resolve returns the identity behind a session token. Forged, expired or
// unknown tokens yield common.ErrSessionInvalid.
func (s *SessionService) Resolve(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, common.ErrSessionInvalid
	}
	sid, err := auth.ParseSessionToken(token, s.secret)
	if err != nil {
		return nil, err
	}
	return s.sessions.Deserialize(ctx, sid)
}

// Logout destroys the session behind token. Tokens that do not verify have no
// session to destroy and are ignored.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	sid, err := auth.ParseSessionToken(token, s.secret)
	if err != nil {
		return nil
	}
	return s.sessions.Destroy(ctx, sid)
}
