package auth

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/partsinventory/internal/common"
	"github.com/dmitrijs2005/partsinventory/internal/cryptox"
	"github.com/dmitrijs2005/partsinventory/internal/server/models"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

type fakeUsers struct {
	mu      sync.Mutex
	byID    map[string]*models.User
	err     error
	block   bool
	lookups int
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{byID: map[string]*models.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) wait(ctx context.Context) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func (f *fakeUsers) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	f.lookups++
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.UserName == username {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	f.lookups++
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) setAdmin(id string, admin bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[id].Admin = admin
}

func (f *fakeUsers) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
}

type countingHasher struct {
	cryptox.PBKDF2Hasher
	mu       sync.Mutex
	verifies int
}

func (h *countingHasher) Verify(password, hash, salt string) bool {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return h.PBKDF2Hasher.Verify(password, hash, salt)
}

type fakeSessionStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	delErr  error
	deleted []string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (s *fakeSessionStore) Set(_ context.Context, sid string, payload []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.data[sid] = append([]byte(nil), payload...)
	s.ttls[sid] = ttl
	return nil
}

func (s *fakeSessionStore) Get(_ context.Context, sid string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	v, ok := s.data[sid]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return v, nil
}

func (s *fakeSessionStore) Del(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.delErr != nil {
		return s.delErr
	}
	s.deleted = append(s.deleted, sid)
	delete(s.data, sid)
	return nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	attempts []string
	resolved []string
}

func (r *fakeRecorder) AuthAttempt(o string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, o)
}

func (r *fakeRecorder) SessionResolved(o string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved = append(r.resolved, o)
}

// newUser builds a stored record for password using the real hasher.
func newUser(id, username, password string, admin bool) *models.User {
	hash, salt, err := cryptox.PBKDF2Hasher{}.Derive(password)
	if err != nil {
		panic(err)
	}
	return &models.User{ID: id, UserName: username, PasswordHash: hash, PasswordSalt: salt, Admin: admin}
}
