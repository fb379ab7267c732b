package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/partsinventory/internal/common"
	"github.com/dmitrijs2005/partsinventory/internal/logging"
	"github.com/dmitrijs2005/partsinventory/internal/server/models"
)

const sessionIDSize = 32

// DefaultSessionTTL is the absolute lifetime of a session.
const DefaultSessionTTL = 30 * 24 * time.Hour

// SessionManager maps session ids to user references in a SessionStore and
// resolves them back to identities.
type SessionManager struct {
	store   SessionStore
	users   IdentityStore
	ttl     time.Duration
	timeout time.Duration
	log     logging.Logger
	rec     Recorder
	now     func() time.Time
}

// NewSessionManager builds a SessionManager. A non-positive ttl falls back
// to DefaultSessionTTL; timeout bounds each store call and zero disables it.
// rec may be nil.
func NewSessionManager(store SessionStore, users IdentityStore, ttl, timeout time.Duration, log logging.Logger, rec Recorder) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &SessionManager{
		store:   store,
		users:   users,
		ttl:     ttl,
		timeout: timeout,
		log:     log,
		rec:     rec,
		now:     time.Now,
	}
}

// Serialize stores a reference to identity under a new session id. The
// session expires ttl after issuance and is never extended.
func (m *SessionManager) Serialize(ctx context.Context, identity *models.Identity) (*models.Session, error) {
	if identity == nil || identity.UserID == "" {
		return nil, fmt.Errorf("%w: empty identity", common.ErrorInternal)
	}

	sid, err := common.MakeRandHexString(sessionIDSize)
	if err != nil {
		return nil, fmt.Errorf("%w: generate session id: %v", common.ErrorInternal, err)
	}

	payload := models.SessionPayload{UserID: identity.UserID, ExpiresAt: m.now().Add(m.ttl).UTC()}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode session: %v", common.ErrorInternal, err)
	}

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	if err := m.store.Set(ctx, sid, raw, m.ttl); err != nil {
		m.log.Error(ctx, "session store write failed", "user_id", identity.UserID, "error", err)
		return nil, fmt.Errorf("%w: store session: %v", common.ErrorInternal, err)
	}

	return &models.Session{ID: sid, UserID: identity.UserID, ExpiresAt: payload.ExpiresAt}, nil
}

// Deserialize resolves sid to the current identity of its user. The user
// record is re-read on every call. Unknown, expired or undecodable sessions
// and sessions whose user no longer exists yield common.ErrSessionInvalid.
func (m *SessionManager) Deserialize(ctx context.Context, sid string) (*models.Identity, error) {
	if sid == "" {
		m.rec.SessionResolved(SessionAbsent)
		return nil, common.ErrSessionInvalid
	}

	payload, err := m.load(ctx, sid)
	if err != nil {
		return nil, m.resolveFailed(ctx, err)
	}

	lookupCtx, cancel := m.withTimeout(ctx)
	defer cancel()
	user, err := m.users.FindByID(lookupCtx, payload.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			m.log.Warn(ctx, "session references missing user", "user_id", payload.UserID)
			m.discard(ctx, sid)
			m.rec.SessionResolved(SessionAbsent)
			return nil, common.ErrSessionInvalid
		}
		return nil, m.resolveFailed(ctx, err)
	}

	m.rec.SessionResolved(SessionValid)
	return user.Identity(), nil
}

// Destroy removes the session. Destroying an unknown session is not an error.
func (m *SessionManager) Destroy(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	if err := m.store.Del(ctx, sid); err != nil && !errors.Is(err, common.ErrorNotFound) {
		m.log.Error(ctx, "session delete failed", "error", err)
		return fmt.Errorf("%w: delete session: %v", common.ErrorInternal, err)
	}
	return nil
}

func (m *SessionManager) load(ctx context.Context, sid string) (*models.SessionPayload, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	raw, err := m.store.Get(ctx, sid)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrSessionInvalid
		}
		return nil, fmt.Errorf("%w: load session: %v", common.ErrorInternal, err)
	}

	var payload models.SessionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		m.log.Warn(ctx, "undecodable session payload", "error", err)
		m.discard(ctx, sid)
		return nil, common.ErrSessionInvalid
	}
	if err := payload.Validate(); err != nil {
		m.log.Warn(ctx, "invalid session payload", "error", err)
		m.discard(ctx, sid)
		return nil, common.ErrSessionInvalid
	}
	if payload.Expired(m.now()) {
		m.discard(ctx, sid)
		return nil, common.ErrSessionInvalid
	}
	return &payload, nil
}

func (m *SessionManager) resolveFailed(ctx context.Context, err error) error {
	if errors.Is(err, common.ErrSessionInvalid) {
		m.rec.SessionResolved(SessionAbsent)
		return common.ErrSessionInvalid
	}
	m.log.Error(ctx, "session resolution failed", "error", err)
	m.rec.SessionResolved(SessionError)
	if errors.Is(err, common.ErrorInternal) {
		return err
	}
	return fmt.Errorf("%w: %v", common.ErrorInternal, err)
}

func (m *SessionManager) discard(ctx context.Context, sid string) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	if err := m.store.Del(ctx, sid); err != nil && !errors.Is(err, common.ErrorNotFound) {
		m.log.Warn(ctx, "stale session cleanup failed", "error", err)
	}
}

func (m *SessionManager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout > 0 {
		return context.WithTimeout(ctx, m.timeout)
	}
	return context.WithCancel(ctx)
}
