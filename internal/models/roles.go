package models

// Role is the authorization level attached to an identity.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// OrDefault returns r, or RoleUser when r is empty.
func (r Role) OrDefault() Role {
	if r == "" {
		return RoleUser
	}
	return r
}
