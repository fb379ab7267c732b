package auth

import (
	"github.com/dmitrijs2005/partsinventory/internal/common"
	"github.com/dmitrijs2005/partsinventory/internal/server/models"
)

// RequireAuthenticated passes when an identity was resolved for the request.
func RequireAuthenticated(id *models.Identity) error {
	if id == nil || id.UserID == "" {
		return common.ErrUnauthenticated
	}
	return nil
}

// RequireRole passes when the identity is authenticated and holds role.
// Roles are flat; admin also satisfies standard. Unauthenticated requests
// get common.ErrUnauthenticated, never common.ErrForbidden.
func RequireRole(id *models.Identity, role models.Role) error {
	if err := RequireAuthenticated(id); err != nil {
		return err
	}
	if id.Role == role || id.Role == models.RoleAdmin {
		return nil
	}
	return common.ErrForbidden
}

// PrivilegedMutation is a write payload that may carry privileged fields.
type PrivilegedMutation interface {
	HasPrivilegedChange() bool
	StripPrivileged()
}

// RestrictPrivilegedFieldMutation removes privileged fields from m unless
// requester is an admin. It reports whether anything was stripped. It must
// run before m reaches persistence.
func RestrictPrivilegedFieldMutation(requester *models.Identity, m PrivilegedMutation) bool {
	if !m.HasPrivilegedChange() {
		return false
	}
	if RequireRole(requester, models.RoleAdmin) == nil {
		return false
	}
	m.StripPrivileged()
	return true
}
