package lifecycle

// Role is the coarse actor role resolved per session.
type Role string

const (
	RoleGuest    Role = "guest"
	RoleCustomer Role = "customer"
	RoleEmployee Role = "employee"
)

// Satisfies reports whether the actor role meets the required role.
// There is no role hierarchy: requirements are exact.
func (r Role) Satisfies(required Role) bool {
	return r == required
}

func ParseRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleGuest, RoleCustomer, RoleEmployee:
		return Role(value), true
	default:
		return "", false
	}
}
