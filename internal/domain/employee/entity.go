package employee

import (
	"time"
)

// Employee is the subset of the employee record the payroll engine reads.
// Payslips copy these fields at calculation time.
type Employee struct {
	ID           string
	EmployeeCode string
	FullName     string
	Department   *string
	Location     *string
	PAN          *string
	UAN          *string
	BankAccount  *string
	HireDate     time.Time
	Status       EmploymentStatus
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

// HasBankAccount reports whether a non-empty bank account is on file.
func (e Employee) HasBankAccount() bool {
	return e.BankAccount != nil && *e.BankAccount != ""
}
