package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const employeeColumns = `
	id, employee_code, full_name, department, location, pan, uan, bank_account, hire_date, employment_status
`

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var emp employee.Employee
	err := row.Scan(
		&emp.ID, &emp.EmployeeCode, &emp.FullName, &emp.Department, &emp.Location,
		&emp.PAN, &emp.UAN, &emp.BankAccount, &emp.HireDate, &emp.Status,
	)
	return emp, err
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	emp, err := scanEmployee(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, fmt.Errorf("employee %s: %w", id, employee.ErrEmployeeNotFound)
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee %s: %w", id, err)
	}

	return emp, nil
}

// GetActiveEmployees implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetActiveEmployees(ctx context.Context, asOf time.Time) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE employment_status = $1 AND hire_date <= $2
		ORDER BY employee_code
	`

	rows, err := q.Query(ctx, query, employee.EmploymentStatusActive, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}

	return employees, nil
}
