package domain

import "github.com/google/uuid"

// Role discriminates the two account kinds. Carts and tokens are always
// scoped to a (subject, role) pair, never to a bare subject id.
type Role string

const (
	RoleManufacturer Role = "manufacturer"
	RoleProfessional Role = "professional"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleManufacturer:
		return RoleManufacturer, true
	case RoleProfessional:
		return RoleProfessional, true
	}
	return "", false
}

// Identity is the resolved (subject, role) pair of a verified session token.
type Identity struct {
	SubjectID uuid.UUID `json:"subject_id"`
	Role      Role      `json:"role"`
}

// CartStatus values. Active is the only mutable state.
const (
	CartActive    = "active"
	CartCompleted = "completed"
	CartAbandoned = "abandoned"
)
