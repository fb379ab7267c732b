package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/partsinventory/internal/common"
	"github.com/dmitrijs2005/partsinventory/internal/dbx"
	"github.com/dmitrijs2005/partsinventory/internal/server/models"
	"github.com/dmitrijs2005/partsinventory/internal/server/repositories/categories"
	"github.com/dmitrijs2005/partsinventory/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/partsinventory/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

type fakeUsersRepo struct {
	mu      sync.Mutex
	byID    map[string]*models.User
	seq     int
	err     error
	created []*models.User
	updates []models.UserUpdate
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, existing := range f.byID {
		if existing.UserName == u.UserName {
			return nil, common.ErrorAlreadyExists
		}
	}
	f.seq++
	c := *u
	c.ID = fmt.Sprintf("u-%d", f.seq)
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	f.byID[c.ID] = &c
	f.created = append(f.created, &c)
	out := c
	return &out, nil
}

func (f *fakeUsersRepo) FindByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if u.UserName == username {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsersRepo) List(context.Context) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.User
	for _, u := range f.byID {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserName < out[j].UserName })
	return out, nil
}

func (f *fakeUsersRepo) Update(_ context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	f.updates = append(f.updates, upd)
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.PasswordSalt != nil {
		u.PasswordSalt = *upd.PasswordSalt
	}
	if upd.Admin != nil {
		u.Admin = *upd.Admin
	}
	c := *u
	return &c, nil
}

func (f *fakeUsersRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeSessionsRepo struct {
	deletedUsers []string
	byUser       int64
	expired      int64
	err          error
}

func (f *fakeSessionsRepo) Set(context.Context, string, []byte, time.Duration) error { return f.err }
func (f *fakeSessionsRepo) Get(context.Context, string) ([]byte, error) {
	return nil, common.ErrorNotFound
}
func (f *fakeSessionsRepo) Del(context.Context, string) error { return f.err }
func (f *fakeSessionsRepo) DeleteExpired(context.Context) (int64, error) {
	return f.expired, f.err
}
func (f *fakeSessionsRepo) DeleteByUser(_ context.Context, userID string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.deletedUsers = append(f.deletedUsers, userID)
	return f.byUser, nil
}

type fakeCategoriesRepo struct {
	items   map[string]*models.PartCategory
	created []*models.PartCategory
	err     error
}

func (f *fakeCategoriesRepo) Create(_ context.Context, c *models.PartCategory) (*models.PartCategory, error) {
	if f.err != nil {
		return nil, f.err
	}
	c.ID = fmt.Sprintf("c-%d", len(f.created)+1)
	f.created = append(f.created, c)
	if f.items == nil {
		f.items = map[string]*models.PartCategory{}
	}
	f.items[c.ID] = c
	return c, nil
}

func (f *fakeCategoriesRepo) FindByID(_ context.Context, id string) (*models.PartCategory, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return c, nil
}

func (f *fakeCategoriesRepo) List(context.Context) ([]*models.PartCategory, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.PartCategory
	for _, c := range f.items {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeCategoriesRepo) Delete(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.items[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	s *fakeSessionsRepo
	c *fakeCategoriesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsersRepo(), s: &fakeSessionsRepo{}, c: &fakeCategoriesRepo{}}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return m.u }
func (m *fakeRepoManager) Sessions(dbx.DBTX) sessions.Repository        { return m.s }
func (m *fakeRepoManager) Categories(dbx.DBTX) categories.Repository    { return m.c }
