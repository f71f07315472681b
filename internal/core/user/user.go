package user

import "strings"

// Role is fixed at user creation.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleTechnician Role = "TECHNICIAN"
	RoleRequester  Role = "REQUESTER"
)

var roles = []Role{RoleAdmin, RoleTechnician, RoleRequester}

func Roles() []Role {
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

func (r Role) Valid() bool {
	for _, known := range roles {
		if r == known {
			return true
		}
	}
	return false
}

// Privileged roles get full visibility and full field access on requests.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleTechnician
}

func (r Role) String() string {
	return string(r)
}

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}
