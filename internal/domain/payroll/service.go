package payroll

import (
	"context"
	"io"
)

type PayrollService interface {
	// Payruns
	CreatePayrun(ctx context.Context, req CreatePayrunRequest) (PayrunResponse, error)
	ProcessPayrun(ctx context.Context, id string) (PayrunResponse, error)
	ValidatePayrun(ctx context.Context, id string) (PayrunResponse, error)
	MarkPayrunPaid(ctx context.Context, id string) (PayrunResponse, error)
	DeletePayrun(ctx context.Context, id string) error
	GetPayrun(ctx context.Context, id string) (PayrunResponse, error)
	ListPayruns(ctx context.Context, filter PayrunFilter) (ListPayrunResponse, error)
	ExportPayrunRegister(ctx context.Context, id string, w io.Writer) error

	// Payslips
	GetPayslip(ctx context.Context, id string) (PayslipResponse, error)
	UpdatePayslipDeductions(ctx context.Context, req UpdatePayslipDeductionsRequest) (PayslipResponse, error)
	RecalculatePayslip(ctx context.Context, id string) (PayslipResponse, error)
	RenderPayslipPDF(ctx context.Context, id string, w io.Writer) error

	// Salary structures
	CreateSalaryStructure(ctx context.Context, req CreateSalaryStructureRequest) (SalaryStructureResponse, error)
	ListSalaryStructures(ctx context.Context, employeeID string) ([]SalaryStructureResponse, error)
}
