package payroll

import (
	"errors"

	"github.com/cmlabs-hris/hris-payroll/internal/pkg/validator"
)

var (
	ErrPayrunNotFound          = errors.New("payrun not found")
	ErrDuplicatePayrun         = errors.New("payrun already exists for this period")
	ErrPayrunLocked            = errors.New("payrun is locked")
	ErrInvalidPayrunTransition = errors.New("invalid payrun status transition")
	ErrConcurrentModification  = errors.New("payrun is being modified by another request")
	ErrPayslipNotFound         = errors.New("payslip not found")
	ErrPayslipLocked           = errors.New("payslip is locked, payrun already paid")
	ErrNoSalaryStructure       = errors.New("employee has no salary structure")
	ErrInvalidSalaryStructure  = errors.New("invalid salary structure")
	ErrSalaryStructureInUse    = errors.New("salary structure is referenced by a payslip")
	ErrInvalidPeriod           = errors.New("invalid payroll period")
)

// StructureError reports why a salary structure was rejected. It matches both
// ErrInvalidSalaryStructure and validator.ValidationErrors.
type StructureError struct {
	Errs validator.ValidationErrors
}

func (e *StructureError) Error() string {
	return ErrInvalidSalaryStructure.Error() + ": " + e.Errs.Error()
}

func (e *StructureError) Unwrap() []error {
	return []error{ErrInvalidSalaryStructure, e.Errs}
}
