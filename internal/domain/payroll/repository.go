package payroll

import (
	"context"
	"time"
)

// TxManager runs fn inside one database transaction. Repositories called with
// the context passed to fn take part in that transaction.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type SalaryStructureRepository interface {
	// Upsert inserts a structure or replaces the one with the same employee and effective date.
	Upsert(ctx context.Context, structure SalaryStructure) (SalaryStructure, error)
	// GetByEmployeeAndDate fails with ErrNoSalaryStructure when no structure starts on effectiveFrom.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, effectiveFrom time.Time) (SalaryStructure, error)
	// GetActive returns the structure with the latest EffectiveFrom on or before asOf,
	// or ErrNoSalaryStructure.
	GetActive(ctx context.Context, employeeID string, asOf time.Time) (SalaryStructure, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]SalaryStructure, error)
	IsReferenced(ctx context.Context, structureID string) (bool, error)
}

type PayrunRepository interface {
	// Create fails with ErrDuplicatePayrun when (month, year) already exists.
	Create(ctx context.Context, payrun Payrun) (Payrun, error)
	GetByID(ctx context.Context, id string) (Payrun, error)
	// LockByID takes a row lock for the rest of the transaction. A lock held by
	// another transaction fails with ErrConcurrentModification instead of waiting.
	LockByID(ctx context.Context, id string) (Payrun, error)
	List(ctx context.Context, filter PayrunFilter) ([]Payrun, int64, error)
	// Update writes status, aggregates, warnings and timestamps. It fails with
	// ErrConcurrentModification when payrun.Version is stale and bumps the version otherwise.
	Update(ctx context.Context, payrun Payrun) (Payrun, error)
	Delete(ctx context.Context, id string) error
}

type PayslipRepository interface {
	// CreateBatch inserts payslips in chunks of batchSize.
	CreateBatch(ctx context.Context, payslips []Payslip, batchSize int) error
	GetByID(ctx context.Context, id string) (Payslip, error)
	ListByPayrun(ctx context.Context, payrunID string) ([]Payslip, error)
	Update(ctx context.Context, payslip Payslip) error
	DeleteByPayrun(ctx context.Context, payrunID string) error
	// MarkNotEditable locks every payslip of the payrun against further edits.
	MarkNotEditable(ctx context.Context, payrunID string) error
}
