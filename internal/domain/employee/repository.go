package employee

import (
	"context"
	"time"
)

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	// GetActiveEmployees returns active employees who joined on or before asOf.
	GetActiveEmployees(ctx context.Context, asOf time.Time) ([]Employee, error)
}
