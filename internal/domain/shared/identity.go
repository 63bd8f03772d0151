package shared

import "github.com/google/uuid"

// Role is the coarse permission level of a caller
type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleVendor, RoleAdmin:
		return true
	}
	return false
}

// Identity is the authenticated caller handed to application services.
// VendorID is set only for vendor users and links them to the store they manage.
type Identity struct {
	UserID   uuid.UUID
	Role     Role
	VendorID *uuid.UUID
}

// IsAdmin reports whether the caller has the admin role
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// OwnsVendor reports whether the caller manages the given vendor
func (i Identity) OwnsVendor(vendorID uuid.UUID) bool {
	return i.Role == RoleVendor && i.VendorID != nil && *i.VendorID == vendorID
}

// SystemIdentity is used by background processes acting on behalf of the platform
func SystemIdentity() Identity {
	return Identity{Role: RoleAdmin}
}
