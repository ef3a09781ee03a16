package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const structureColumns = `
	id, employee_id, effective_from, monthly_wage,
	basic_percentage, hra_percentage, standard_allowance, performance_bonus_percentage,
	lta_percentage, pf_percentage, professional_tax, working_days_per_week, working_hours_per_day,
	basic_salary, hra, standard_allowance_amount, performance_bonus, lta, fixed_allowance,
	created_at, updated_at
`

type salaryStructureRepository struct {
	db *database.DB
}

func NewSalaryStructureRepository(db *database.DB) payroll.SalaryStructureRepository {
	return &salaryStructureRepository{db: db}
}

func scanStructure(row pgx.Row) (payroll.SalaryStructure, error) {
	var s payroll.SalaryStructure
	err := row.Scan(
		&s.ID, &s.EmployeeID, &s.EffectiveFrom, &s.MonthlyWage,
		&s.Percentages.BasicPercentage, &s.Percentages.HRAPercentage, &s.Percentages.StandardAllowance,
		&s.Percentages.PerformanceBonusPercentage, &s.Percentages.LTAPercentage, &s.Percentages.PFPercentage,
		&s.Percentages.ProfessionalTax, &s.Percentages.WorkingDaysPerWeek, &s.Percentages.WorkingHoursPerDay,
		&s.Components.BasicSalary, &s.Components.HRA, &s.Components.StandardAllowance,
		&s.Components.PerformanceBonus, &s.Components.LTA, &s.Components.FixedAllowance,
		&s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

func (r *salaryStructureRepository) Upsert(ctx context.Context, s payroll.SalaryStructure) (payroll.SalaryStructure, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO salary_structures (
			id, employee_id, effective_from, monthly_wage,
			basic_percentage, hra_percentage, standard_allowance, performance_bonus_percentage,
			lta_percentage, pf_percentage, professional_tax, working_days_per_week, working_hours_per_day,
			basic_salary, hra, standard_allowance_amount, performance_bonus, lta, fixed_allowance
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (employee_id, effective_from) DO UPDATE SET
			monthly_wage = EXCLUDED.monthly_wage,
			basic_percentage = EXCLUDED.basic_percentage,
			hra_percentage = EXCLUDED.hra_percentage,
			standard_allowance = EXCLUDED.standard_allowance,
			performance_bonus_percentage = EXCLUDED.performance_bonus_percentage,
			lta_percentage = EXCLUDED.lta_percentage,
			pf_percentage = EXCLUDED.pf_percentage,
			professional_tax = EXCLUDED.professional_tax,
			working_days_per_week = EXCLUDED.working_days_per_week,
			working_hours_per_day = EXCLUDED.working_hours_per_day,
			basic_salary = EXCLUDED.basic_salary,
			hra = EXCLUDED.hra,
			standard_allowance_amount = EXCLUDED.standard_allowance_amount,
			performance_bonus = EXCLUDED.performance_bonus,
			lta = EXCLUDED.lta,
			fixed_allowance = EXCLUDED.fixed_allowance,
			updated_at = NOW()
		RETURNING ` + structureColumns

	saved, err := scanStructure(q.QueryRow(ctx, query,
		s.ID, s.EmployeeID, s.EffectiveFrom, s.MonthlyWage,
		s.Percentages.BasicPercentage, s.Percentages.HRAPercentage, s.Percentages.StandardAllowance,
		s.Percentages.PerformanceBonusPercentage, s.Percentages.LTAPercentage, s.Percentages.PFPercentage,
		s.Percentages.ProfessionalTax, s.Percentages.WorkingDaysPerWeek, s.Percentages.WorkingHoursPerDay,
		s.Components.BasicSalary, s.Components.HRA, s.Components.StandardAllowance,
		s.Components.PerformanceBonus, s.Components.LTA, s.Components.FixedAllowance,
	))
	if err != nil {
		return payroll.SalaryStructure{}, fmt.Errorf("failed to upsert salary structure for employee %s: %w", s.EmployeeID, err)
	}

	return saved, nil
}

func (r *salaryStructureRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, effectiveFrom time.Time) (payroll.SalaryStructure, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + structureColumns + ` FROM salary_structures WHERE employee_id = $1 AND effective_from = $2`

	s, err := scanStructure(q.QueryRow(ctx, query, employeeID, effectiveFrom))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.SalaryStructure{}, fmt.Errorf("employee %s on %s: %w", employeeID, effectiveFrom.Format("2006-01-02"), payroll.ErrNoSalaryStructure)
		}
		return payroll.SalaryStructure{}, fmt.Errorf("failed to get salary structure for employee %s: %w", employeeID, err)
	}

	return s, nil
}

func (r *salaryStructureRepository) GetActive(ctx context.Context, employeeID string, asOf time.Time) (payroll.SalaryStructure, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + structureColumns + `
		FROM salary_structures
		WHERE employee_id = $1 AND effective_from <= $2
		ORDER BY effective_from DESC
		LIMIT 1
	`

	s, err := scanStructure(q.QueryRow(ctx, query, employeeID, asOf))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.SalaryStructure{}, fmt.Errorf("employee %s as of %s: %w", employeeID, asOf.Format("2006-01-02"), payroll.ErrNoSalaryStructure)
		}
		return payroll.SalaryStructure{}, fmt.Errorf("failed to get active salary structure for employee %s: %w", employeeID, err)
	}

	return s, nil
}

func (r *salaryStructureRepository) ListByEmployee(ctx context.Context, employeeID string) ([]payroll.SalaryStructure, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + structureColumns + ` FROM salary_structures WHERE employee_id = $1 ORDER BY effective_from DESC`

	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary structures: %w", err)
	}
	defer rows.Close()

	var structures []payroll.SalaryStructure
	for rows.Next() {
		s, err := scanStructure(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan salary structure: %w", err)
		}
		structures = append(structures, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate salary structures: %w", err)
	}

	return structures, nil
}

func (r *salaryStructureRepository) IsReferenced(ctx context.Context, structureID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM payslips WHERE salary_structure_id = $1)`, structureID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check salary structure %s references: %w", structureID, err)
	}

	return exists, nil
}
