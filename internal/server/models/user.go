// Package models defines server-side data models persisted in the database
// or carried between the auth layer and request handlers.
package models

import "time"

// Role is the flat authorization role of a user.
type Role string

const (
	RoleStandard Role = "standard"
	RoleAdmin    Role = "admin"
)

// User is the stored credential record together with profile fields.
// PasswordHash and PasswordSalt are hex encoded and never leave the server.
type User struct {
	ID           string    `db:"id"`
	UserName     string    `db:"username"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"hash"`
	PasswordSalt string    `db:"salt"`
	Admin        bool      `db:"admin"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Role maps the stored admin flag to a Role.
func (u *User) Role() Role {
	if u.Admin {
		return RoleAdmin
	}
	return RoleStandard
}

// Identity returns the authenticated identity derived from the record.
func (u *User) Identity() *Identity {
	return &Identity{UserID: u.ID, UserName: u.UserName, Role: u.Role()}
}

// PublicUser is the user view exposed to clients.
type PublicUser struct {
	ID        string    `json:"id"`
	UserName  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Admin     bool      `json:"admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Public strips credential material from the record.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		UserName:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Admin:     u.Admin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UserUpdate is a partial update of a user record. Nil fields are left as is.
type UserUpdate struct {
	FirstName    *string
	LastName     *string
	Email        *string
	PasswordHash *string
	PasswordSalt *string
	Admin        *bool
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Email == nil &&
		u.PasswordHash == nil && u.PasswordSalt == nil && u.Admin == nil
}
