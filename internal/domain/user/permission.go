package user

type Permission string

const (
	// Payruns and payslips
	PermissionPayrollView    Permission = "payroll.view"
	PermissionPayrollProcess Permission = "payroll.process"
	PermissionPayrollApprove Permission = "payroll.approve"
	PermissionPayslipEdit    Permission = "payslip.edit"

	// Salary structures
	PermissionSalaryView   Permission = "salary.view"
	PermissionSalaryManage Permission = "salary.manage"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleOwner: {
		PermissionPayrollView,
		PermissionPayrollProcess,
		PermissionPayrollApprove,
		PermissionPayslipEdit,
		PermissionSalaryView,
		PermissionSalaryManage,
	},
	RoleManager: {
		PermissionPayrollView,
		PermissionPayrollProcess,
		PermissionPayrollApprove,
		PermissionPayslipEdit,
		PermissionSalaryView,
		PermissionSalaryManage,
	},
	RolePayroll: {
		PermissionPayrollView,
		PermissionPayrollProcess,
		PermissionPayrollApprove,
		PermissionPayslipEdit,
		PermissionSalaryView,
		PermissionSalaryManage,
	},
	RoleEmployee: {
		// No payroll access
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// HasPayrollAccess reports whether the role may use the payroll API at all.
func HasPayrollAccess(role Role) bool {
	return role == RoleOwner || role == RoleManager || role == RolePayroll
}
