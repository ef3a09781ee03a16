package user

// Role is the "role" claim of an access token.
type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // Reviews and approves payruns
	RolePayroll  Role = "payroll"  // Payroll administrator
	RoleEmployee Role = "employee" // Regular employee
)

func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleManager, RolePayroll, RoleEmployee:
		return true
	}
	return false
}
