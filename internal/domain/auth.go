package domain

// Identity is the authenticated caller as decoded from a bearer token.
type Identity struct {
	SubjectID  string
	Role       Role
	Name       string
	Email      string
	StaffID    string
	Department Department
}

// IsStaff reports whether the caller acts as staff with an assigned staff id.
func (i Identity) IsStaff() bool {
	return i.Role == RoleStaff && i.StaffID != ""
}
