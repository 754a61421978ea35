package domain

// Department enumerates staff departments.
type Department string

const (
	DepartmentCabinCrew   Department = "cabin_crew"
	DepartmentSanitation  Department = "sanitation"
	DepartmentSecurity    Department = "security"
	DepartmentMaintenance Department = "maintenance"
)

// Valid reports whether d is a known department.
func (d Department) Valid() bool {
	switch d {
	case DepartmentCabinCrew, DepartmentSanitation, DepartmentSecurity, DepartmentMaintenance:
		return true
	}
	return false
}

// Sector returns the incident sector a department owns. Maintenance has none.
func (d Department) Sector() (Sector, bool) {
	s := Sector(d)
	if s.Valid() {
		return s, true
	}
	return "", false
}
