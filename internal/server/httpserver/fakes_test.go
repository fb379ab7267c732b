package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/partsinventory/internal/common"
	"github.com/dmitrijs2005/partsinventory/internal/cryptox"
	"github.com/dmitrijs2005/partsinventory/internal/logging"
	"github.com/dmitrijs2005/partsinventory/internal/server/auth"
	"github.com/dmitrijs2005/partsinventory/internal/server/cache"
	"github.com/dmitrijs2005/partsinventory/internal/server/models"
	"github.com/dmitrijs2005/partsinventory/internal/server/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const (
	testCookie = "connect.sid"
	testSecret = "test-secret"
)

var errBoom = errors.New("boom")

// fakeUsers is both the identity store behind the real authenticator and
// the UserManager behind the handlers.
type fakeUsers struct {
	mu     sync.Mutex
	hasher *cryptox.PBKDF2Hasher
	byID   map[string]*models.User

	lastRequester *models.Identity
	lastUpdate    services.UpdateInput
	lastDeleted   string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{hasher: cryptox.NewPBKDF2Hasher(), byID: map[string]*models.User{}}
}

func (f *fakeUsers) seed(t *testing.T, username, password string, admin bool) *models.User {
	t.Helper()
	hash, salt, err := f.hasher.Derive(password)
	require.NoError(t, err)
	u := &models.User{
		ID:           uuid.NewString(),
		UserName:     username,
		FirstName:    "Test",
		LastName:     "User",
		Email:        username + "@example.com",
		PasswordHash: hash,
		PasswordSalt: salt,
		Admin:        admin,
	}
	f.mu.Lock()
	f.byID[u.ID] = u
	f.mu.Unlock()
	return u
}

func (f *fakeUsers) setAdmin(id string, admin bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[id].Admin = admin
}

func (f *fakeUsers) FindByUsername(_ context.Context, username string) (*models.User, error) {
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

func (f *fakeUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) Register(_ context.Context, requester *models.Identity, in services.RegisterInput) (*models.User, error) {
	auth.RestrictPrivilegedFieldMutation(requester, &in)
	if in.UserName == "" {
		return nil, &services.ValidationError{Fields: []services.FieldError{{Field: "username", Message: "Username is required"}}}
	}
	hash, salt, err := f.hasher.Derive(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		ID:           uuid.NewString(),
		UserName:     in.UserName,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		PasswordSalt: salt,
		Admin:        in.Admin != nil && *in.Admin,
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastRequester = requester
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUsers) Get(ctx context.Context, id string) (*models.User, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeUsers) List(context.Context) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.User, 0, len(f.byID))
	for _, u := range f.byID {
		c := *u
		out = append(out, &c)
	}
	return out, nil
}

func (f *fakeUsers) Update(_ context.Context, requester *models.Identity, id string, in services.UpdateInput) (*models.User, error) {
	if requester.UserID != id && !requester.IsAdmin() {
		return nil, common.ErrForbidden
	}
	auth.RestrictPrivilegedFieldMutation(requester, &in)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUpdate = in
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.Admin != nil {
		u.Admin = *in.Admin
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) Delete(_ context.Context, _ *models.Identity, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.byID, id)
	f.lastDeleted = id
	return nil
}

type fakeCategories struct {
	mu   sync.Mutex
	list []*models.PartCategory
	err  error
}

func (f *fakeCategories) List(context.Context) ([]*models.PartCategory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]*models.PartCategory(nil), f.list...), nil
}

func (f *fakeCategories) Get(_ context.Context, id string) (*models.PartCategory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.list {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeCategories) Create(_ context.Context, _ *models.Identity, in services.CategoryInput) (*models.PartCategory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &models.PartCategory{ID: uuid.NewString(), Name: in.Name, Description: in.Description, ParentID: in.ParentID}
	f.list = append(f.list, c)
	return c, nil
}

func (f *fakeCategories) Delete(_ context.Context, _ *models.Identity, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.list {
		if c.ID == id {
			f.list = append(f.list[:i], f.list[i+1:]...)
			return nil
		}
	}
	return common.ErrorNotFound
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

type fakeObserver struct {
	mu       sync.Mutex
	statuses []int
}

func (o *fakeObserver) ObserveHTTP(_ string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, status)
}

// brokenStore fails every read so session resolution hits an internal error.
type brokenStore struct{ *cache.MemoryStore }

func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, errBoom }

type testEnv struct {
	users      *fakeUsers
	categories *fakeCategories
	store      auth.SessionStore
	observer   *fakeObserver
	handler    *Handler
	router     http.Handler
}

type envOption func(*testEnv, *Deps)

func withStore(s auth.SessionStore) envOption {
	return func(e *testEnv, _ *Deps) { e.store = s }
}

func withDeps(fn func(*Deps)) envOption {
	return func(_ *testEnv, d *Deps) { fn(d) }
}

func newEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	env := &testEnv{
		users:      newFakeUsers(),
		categories: &fakeCategories{},
		store:      cache.NewMemoryStore(),
		observer:   &fakeObserver{},
	}
	deps := Deps{
		Users:      env.users,
		Categories: env.categories,
		Observer:   env.observer,
		Cookie:     CookieOptions{Name: testCookie},
		Logger:     logging.Nop{},
	}
	for _, opt := range opts {
		opt(env, &deps)
	}

	authn, err := auth.NewAuthenticator(env.users, env.users.hasher, time.Second, logging.Nop{}, nil)
	require.NoError(t, err)
	mgr := auth.NewSessionManager(env.store, env.users, time.Hour, time.Second, logging.Nop{}, nil)
	deps.Sessions = services.NewSessionService(authn, mgr, []byte(testSecret))

	h, err := NewHandler(deps)
	require.NoError(t, err)
	env.handler = h
	env.router = NewRouter(h)
	return env
}

func (e *testEnv) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil), cookies...)
}

func (e *testEnv) postForm(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req, cookies...)
}

func (e *testEnv) sendJSON(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return e.do(req, cookies...)
}

// login signs in through the JSON API and returns the session cookie.
func (e *testEnv) login(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	rec := e.sendJSON(http.MethodPost, "/api/session", `{"username":"`+username+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	c := responseCookie(rec, testCookie)
	require.NotNil(t, c)
	return c
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
