package domain

import "strings"

// Role is the closed set of portal roles.
type Role string

const (
	RoleHeadOfDepartment Role = "HOD"
	RoleFaculty          Role = "FACULTY"
	RoleStudent          Role = "STUDENT"
)

// ParseRole accepts the canonical role names case-insensitively.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleHeadOfDepartment:
		return RoleHeadOfDepartment, nil
	case RoleFaculty:
		return RoleFaculty, nil
	case RoleStudent:
		return RoleStudent, nil
	}
	return "", ErrInvalidRole
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleHeadOfDepartment, RoleFaculty, RoleStudent:
		return true
	}
	return false
}

// IsStaff is true for HOD and faculty.
func (r Role) IsStaff() bool {
	return r == RoleHeadOfDepartment || r == RoleFaculty
}

// Actor is the authenticated caller as supplied by the identity provider.
type Actor struct {
	ID   string
	Role Role
}
