package models

// Identity is the resolved user and role for the current request.
// It is rebuilt from the user record on every request and never persisted.
type Identity struct {
	UserID   string `json:"user_id"`
	UserName string `json:"username"`
	Role     Role   `json:"role"`
}

// IsAdmin reports whether the identity holds the admin role. It is safe to
// call on a nil identity.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}
