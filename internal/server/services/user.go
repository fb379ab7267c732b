// Package services contains server-side business logic. UserService owns
// user registration and maintenance; SessionService drives login and logout.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/partsinventory/internal/common"
	"github.com/dmitrijs2005/partsinventory/internal/dbx"
	"github.com/dmitrijs2005/partsinventory/internal/logging"
	"github.com/dmitrijs2005/partsinventory/internal/server/auth"
	"github.com/dmitrijs2005/partsinventory/internal/server/models"
	"github.com/dmitrijs2005/partsinventory/internal/server/repositories/repomanager"
)

// RegisterInput is a new account request.
type RegisterInput struct {
	UserName  string
	Password  string
	FirstName string
	LastName  string
	Email     string
	Admin     *bool
}

func (in *RegisterInput) HasPrivilegedChange() bool { return in.Admin != nil }
func (in *RegisterInput) StripPrivileged()          { in.Admin = nil }

func (in *RegisterInput) normalize() {
	in.UserName = strings.TrimSpace(in.UserName)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
}

func (in *RegisterInput) validate() error {
	v := &validator{}
	v.username(in.UserName)
	v.password(in.Password)
	v.name("first_name", "First name", in.FirstName)
	v.name("last_name", "Last name", in.LastName)
	in.Email = v.email(in.Email)
	return v.err()
}

// UpdateInput is a partial account change. Nil fields are left untouched.
type UpdateInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Password  *string
	Admin     *bool
}

func (in *UpdateInput) HasPrivilegedChange() bool { return in.Admin != nil }
func (in *UpdateInput) StripPrivileged()          { in.Admin = nil }

func (in *UpdateInput) validate() error {
	v := &validator{}
	if in.FirstName != nil {
		s := strings.TrimSpace(*in.FirstName)
		v.name("first_name", "First name", s)
		in.FirstName = &s
	}
	if in.LastName != nil {
		s := strings.TrimSpace(*in.LastName)
		v.name("last_name", "Last name", s)
		in.LastName = &s
	}
	if in.Email != nil {
		s := v.email(strings.TrimSpace(*in.Email))
		in.Email = &s
	}
	if in.Password != nil {
		v.password(*in.Password)
	}
	return v.err()
}

// UserService manages user records. It also serves as the identity store
// consumed by the auth package.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      auth.CredentialHasher
	log         logging.Logger
}

// NewUserService constructs a UserService.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher auth.CredentialHasher, log logging.Logger) *UserService {
	return &UserService{db: db, repomanager: m, hasher: hasher, log: log}
}

// FindByUsername implements auth.IdentityStore.
func (s *UserService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.repomanager.Users(s.db).FindByUsername(ctx, username)
}

// FindByID implements auth.IdentityStore.
func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.repomanager.Users(s.db).FindByID(ctx, id)
}

// Register validates in and creates the user. The admin flag is honored only
// when requester is an admin; anonymous sign-ups always get the standard role.
func (s *UserService) Register(ctx context.Context, requester *models.Identity, in RegisterInput) (*models.User, error) {
	in.normalize()
	if auth.RestrictPrivilegedFieldMutation(requester, &in) {
		s.log.Warn(ctx, "admin flag dropped from registration", "username", in.UserName)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	hash, salt, err := s.hasher.Derive(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: derive password hash: %v", common.ErrorInternal, err)
	}

	user := &models.User{
		UserName:     in.UserName,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		PasswordSalt: salt,
		Admin:        in.Admin != nil && *in.Admin,
	}
	u, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, &ValidationError{Fields: []FieldError{{Field: "username", Message: "Username is already taken"}}}
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	s.log.Info(ctx, "user registered", "user_id", u.ID, "username", u.UserName, "admin", u.Admin)
	return u, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return u, nil
}

// List returns all users.
func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	list, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return list, nil
}

// Update changes the user id on behalf of requester. Standard users may only
// change their own record and never the admin flag.
func (s *UserService) Update(ctx context.Context, requester *models.Identity, id string, in UpdateInput) (*models.User, error) {
	if err := auth.RequireAuthenticated(requester); err != nil {
		return nil, err
	}
	if requester.UserID != id && !requester.IsAdmin() {
		return nil, common.ErrForbidden
	}
	if auth.RestrictPrivilegedFieldMutation(requester, &in) {
		s.log.Warn(ctx, "admin flag dropped from update", "user_id", id, "requester", requester.UserID)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	upd := models.UserUpdate{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Admin:     in.Admin,
	}
	if in.Password != nil {
		hash, salt, err := s.hasher.Derive(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("%w: derive password hash: %v", common.ErrorInternal, err)
		}
		upd.PasswordHash, upd.PasswordSalt = &hash, &salt
	}

	u, err := s.repomanager.Users(s.db).Update(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}
	return u, nil
}

// Delete removes a user. Only admins may delete users.
func (s *UserService) Delete(ctx context.Context, requester *models.Identity, id string) error {
	if err := auth.RequireRole(requester, models.RoleAdmin); err != nil {
		return err
	}
	if err := s.repomanager.Users(s.db).Delete(ctx, id); err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	s.log.Info(ctx, "user deleted", "user_id", id, "requester", requester.UserID)
	return nil
}

// SetRole grants or revokes the admin role by username. It is an operator
// action and skips the requester checks.
func (s *UserService) SetRole(ctx context.Context, username string, role models.Role) (*models.User, error) {
	if role != models.RoleAdmin && role != models.RoleStandard {
		return nil, fmt.Errorf("%w: unknown role %q", common.ErrorValidation, role)
	}
	admin := role == models.RoleAdmin
	var u *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		found, err := repo.FindByUsername(ctx, username)
		if err != nil {
			return fmt.Errorf("error loading user: %w", err)
		}
		u, err = repo.Update(ctx, found.ID, models.UserUpdate{Admin: &admin})
		if err != nil {
			return fmt.Errorf("error updating user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "role changed", "username", username, "role", string(role))
	return u, nil
}

// RevokeSessions deletes every stored session of username and returns how
// many were removed.
func (s *UserService) RevokeSessions(ctx context.Context, username string) (int64, error) {
	var n int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.repomanager.Users(tx).FindByUsername(ctx, username)
		if err != nil {
			return fmt.Errorf("error loading user: %w", err)
		}
		n, err = s.repomanager.Sessions(tx).DeleteByUser(ctx, u.ID)
		if err != nil {
			return fmt.Errorf("error revoking sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.Info(ctx, "sessions revoked", "username", username, "count", n)
	return n, nil
}

// PruneSessions deletes expired sessions.
func (s *UserService) PruneSessions(ctx context.Context) (int64, error) {
	n, err := s.repomanager.Sessions(s.db).DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("error pruning sessions: %w", err)
	}
	return n, nil
}
