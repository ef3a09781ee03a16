package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, user.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, user.ErrPayrollAccessRequired):
		Forbidden(w, "Payroll access required")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, err.Error())

	// Payroll domain errors carry the payrun, payslip or employee id
	case errors.Is(err, payroll.ErrPayrunNotFound),
		errors.Is(err, payroll.ErrPayslipNotFound),
		errors.Is(err, payroll.ErrNoSalaryStructure):
		NotFound(w, err.Error())
	case errors.Is(err, payroll.ErrDuplicatePayrun),
		errors.Is(err, payroll.ErrPayrunLocked),
		errors.Is(err, payroll.ErrPayslipLocked),
		errors.Is(err, payroll.ErrInvalidPayrunTransition),
		errors.Is(err, payroll.ErrConcurrentModification),
		errors.Is(err, payroll.ErrSalaryStructureInUse):
		Conflict(w, err.Error())
	case errors.Is(err, payroll.ErrInvalidSalaryStructure):
		BadRequest(w, "Invalid salary structure", nil)
	case errors.Is(err, payroll.ErrInvalidPeriod):
		BadRequest(w, "Invalid payroll period", nil)

	// Attendance data errors
	case errors.Is(err, attendance.ErrInvalidStatus):
		slog.Error("Invalid attendance data", "error", err)
		InternalServerError(w, "Attendance data is invalid")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
