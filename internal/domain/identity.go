package domain

import "time"

// Role is the privilege tier of an identity. The set is closed: the
// service knows exactly two tiers.
type Role string

const (
	RoleAdministrator Role = "ADMINISTRATOR"
	RoleSales         Role = "SALES"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdministrator || r == RoleSales
}

// Identity is the public projection of a user account: everything a
// handler may see or serialize. Credential material is never part of it.
type Identity struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IdentityWithCredential is the directory-internal projection that
// additionally carries the password hash. It exists so that reads which
// need the hash (login, password change) are explicit call sites rather
// than a flag on a shared query.
type IdentityWithCredential struct {
	Identity
	PasswordHash string
}
