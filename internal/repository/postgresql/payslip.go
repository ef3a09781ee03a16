package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const payslipColumns = `
	id, payrun_id, employee_id, salary_structure_id,
	employee_name, employee_code, department, location, pan, uan, bank_account,
	days_in_month, total_working_days, present_days, absent_days, paid_time_off, worked_days,
	basic_salary, hra, standard_allowance, performance_bonus, lta, fixed_allowance, gross_salary,
	pf_employee, pf_employer, professional_tax, tds_deduction, other_deductions, total_deductions, net_salary,
	is_editable, created_at, updated_at
`

const insertPayslip = `
	INSERT INTO payslips (` + payslipColumns + `) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
		$18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34
	)
`

type payslipRepository struct {
	db *database.DB
}

func NewPayslipRepository(db *database.DB) payroll.PayslipRepository {
	return &payslipRepository{db: db}
}

func scanPayslip(row pgx.Row) (payroll.Payslip, error) {
	var p payroll.Payslip
	err := row.Scan(
		&p.ID, &p.PayrunID, &p.EmployeeID, &p.SalaryStructureID,
		&p.EmployeeName, &p.EmployeeCode, &p.Department, &p.Location, &p.PAN, &p.UAN, &p.BankAccount,
		&p.DaysInMonth, &p.TotalWorkingDays, &p.PresentDays, &p.AbsentDays, &p.PaidTimeOff, &p.WorkedDays,
		&p.Earnings.BasicSalary, &p.Earnings.HRA, &p.Earnings.StandardAllowance, &p.Earnings.PerformanceBonus,
		&p.Earnings.LTA, &p.Earnings.FixedAllowance, &p.GrossSalary,
		&p.PFEmployee, &p.PFEmployer, &p.ProfessionalTax, &p.TDSDeduction, &p.OtherDeductions, &p.TotalDeductions, &p.NetSalary,
		&p.IsEditable, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func payslipArgs(p payroll.Payslip) []interface{} {
	return []interface{}{
		p.ID, p.PayrunID, p.EmployeeID, p.SalaryStructureID,
		p.EmployeeName, p.EmployeeCode, p.Department, p.Location, p.PAN, p.UAN, p.BankAccount,
		p.DaysInMonth, p.TotalWorkingDays, p.PresentDays, p.AbsentDays, p.PaidTimeOff, p.WorkedDays,
		p.Earnings.BasicSalary, p.Earnings.HRA, p.Earnings.StandardAllowance, p.Earnings.PerformanceBonus,
		p.Earnings.LTA, p.Earnings.FixedAllowance, p.GrossSalary,
		p.PFEmployee, p.PFEmployer, p.ProfessionalTax, p.TDSDeduction, p.OtherDeductions, p.TotalDeductions, p.NetSalary,
		p.IsEditable, p.CreatedAt, p.UpdatedAt,
	}
}

func (r *payslipRepository) CreateBatch(ctx context.Context, payslips []payroll.Payslip, batchSize int) error {
	q := GetQuerier(ctx, r.db)

	if batchSize <= 0 {
		batchSize = len(payslips)
	}

	for start := 0; start < len(payslips); start += batchSize {
		end := min(start+batchSize, len(payslips))

		batch := &pgx.Batch{}
		for _, p := range payslips[start:end] {
			batch.Queue(insertPayslip, payslipArgs(p)...)
		}

		if err := sendBatch(ctx, q, batch); err != nil {
			return fmt.Errorf("failed to insert payslips %d-%d: %w", start, end-1, err)
		}
	}

	return nil
}

func sendBatch(ctx context.Context, q database.Querier, batch *pgx.Batch) error {
	results := q.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return err
		}
	}
	return results.Close()
}

func (r *payslipRepository) GetByID(ctx context.Context, id string) (payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payslipColumns + ` FROM payslips WHERE id = $1`

	p, err := scanPayslip(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Payslip{}, fmt.Errorf("payslip %s: %w", id, payroll.ErrPayslipNotFound)
		}
		return payroll.Payslip{}, fmt.Errorf("failed to get payslip %s: %w", id, err)
	}

	return p, nil
}

func (r *payslipRepository) ListByPayrun(ctx context.Context, payrunID string) ([]payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payslipColumns + ` FROM payslips WHERE payrun_id = $1 ORDER BY employee_code`

	rows, err := q.Query(ctx, query, payrunID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslips: %w", err)
	}
	defer rows.Close()

	var payslips []payroll.Payslip
	for rows.Next() {
		p, err := scanPayslip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payslip: %w", err)
		}
		payslips = append(payslips, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payslips: %w", err)
	}

	return payslips, nil
}

func (r *payslipRepository) Update(ctx context.Context, p payroll.Payslip) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payslips SET
			salary_structure_id = $2,
			employee_name = $3, employee_code = $4, department = $5, location = $6,
			pan = $7, uan = $8, bank_account = $9,
			days_in_month = $10, total_working_days = $11,
			present_days = $12, absent_days = $13, paid_time_off = $14, worked_days = $15,
			basic_salary = $16, hra = $17, standard_allowance = $18, performance_bonus = $19,
			lta = $20, fixed_allowance = $21, gross_salary = $22,
			pf_employee = $23, pf_employer = $24, professional_tax = $25,
			tds_deduction = $26, other_deductions = $27, total_deductions = $28, net_salary = $29,
			updated_at = NOW()
		WHERE id = $1 AND is_editable = TRUE
	`

	result, err := q.Exec(ctx, query,
		p.ID, p.SalaryStructureID,
		p.EmployeeName, p.EmployeeCode, p.Department, p.Location,
		p.PAN, p.UAN, p.BankAccount,
		p.DaysInMonth, p.TotalWorkingDays,
		p.PresentDays, p.AbsentDays, p.PaidTimeOff, p.WorkedDays,
		p.Earnings.BasicSalary, p.Earnings.HRA, p.Earnings.StandardAllowance, p.Earnings.PerformanceBonus,
		p.Earnings.LTA, p.Earnings.FixedAllowance, p.GrossSalary,
		p.PFEmployee, p.PFEmployer, p.ProfessionalTax,
		p.TDSDeduction, p.OtherDeductions, p.TotalDeductions, p.NetSalary,
	)
	if err != nil {
		return fmt.Errorf("failed to update payslip %s: %w", p.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("payslip %s: %w", p.ID, payroll.ErrPayslipLocked)
	}

	return nil
}

func (r *payslipRepository) DeleteByPayrun(ctx context.Context, payrunID string) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `DELETE FROM payslips WHERE payrun_id = $1`, payrunID); err != nil {
		return fmt.Errorf("failed to delete payslips of payrun %s: %w", payrunID, err)
	}

	return nil
}

func (r *payslipRepository) MarkNotEditable(ctx context.Context, payrunID string) error {
	q := GetQuerier(ctx, r.db)

	query := `UPDATE payslips SET is_editable = FALSE, updated_at = NOW() WHERE payrun_id = $1`
	if _, err := q.Exec(ctx, query, payrunID); err != nil {
		return fmt.Errorf("failed to lock payslips of payrun %s: %w", payrunID, err)
	}

	return nil
}
