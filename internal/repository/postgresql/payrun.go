package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const payrunColumns = `
	id, month, year, status, pay_period_start, pay_period_end,
	employee_count, total_gross_wage, total_deductions, total_net_wage, total_employer_contribution,
	warnings, version, processed_at, validated_at, paid_at, created_at, updated_at
`

type payrunRepository struct {
	db *database.DB
}

func NewPayrunRepository(db *database.DB) payroll.PayrunRepository {
	return &payrunRepository{db: db}
}

func scanPayrun(row pgx.Row) (payroll.Payrun, error) {
	var p payroll.Payrun
	var warnings []byte
	err := row.Scan(
		&p.ID, &p.Month, &p.Year, &p.Status, &p.PayPeriodStart, &p.PayPeriodEnd,
		&p.EmployeeCount, &p.TotalGrossWage, &p.TotalDeductions, &p.TotalNetWage, &p.TotalEmployerContribution,
		&warnings, &p.Version, &p.ProcessedAt, &p.ValidatedAt, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return payroll.Payrun{}, err
	}
	if len(warnings) > 0 {
		if err := json.Unmarshal(warnings, &p.Warnings); err != nil {
			return payroll.Payrun{}, fmt.Errorf("failed to decode warnings of payrun %s: %w", p.ID, err)
		}
	}
	return p, nil
}

func encodeWarnings(warnings []payroll.PayrunWarning) ([]byte, error) {
	if warnings == nil {
		warnings = []payroll.PayrunWarning{}
	}
	return json.Marshal(warnings)
}

func (r *payrunRepository) Create(ctx context.Context, payrun payroll.Payrun) (payroll.Payrun, error) {
	q := GetQuerier(ctx, r.db)

	warnings, err := encodeWarnings(payrun.Warnings)
	if err != nil {
		return payroll.Payrun{}, fmt.Errorf("failed to encode payrun warnings: %w", err)
	}

	query := `
		INSERT INTO payruns (
			id, month, year, status, pay_period_start, pay_period_end,
			employee_count, total_gross_wage, total_deductions, total_net_wage, total_employer_contribution,
			warnings
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + payrunColumns

	created, err := scanPayrun(q.QueryRow(ctx, query,
		payrun.ID, payrun.Month, payrun.Year, payrun.Status, payrun.PayPeriodStart, payrun.PayPeriodEnd,
		payrun.EmployeeCount, payrun.TotalGrossWage, payrun.TotalDeductions, payrun.TotalNetWage, payrun.TotalEmployerContribution,
		warnings,
	))
	if err != nil {
		if hasCode(err, codeUniqueViolation) {
			return payroll.Payrun{}, fmt.Errorf("payrun %02d/%d: %w", payrun.Month, payrun.Year, payroll.ErrDuplicatePayrun)
		}
		return payroll.Payrun{}, fmt.Errorf("failed to create payrun: %w", err)
	}

	return created, nil
}

func (r *payrunRepository) GetByID(ctx context.Context, id string) (payroll.Payrun, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payrunColumns + ` FROM payruns WHERE id = $1`

	p, err := scanPayrun(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Payrun{}, fmt.Errorf("payrun %s: %w", id, payroll.ErrPayrunNotFound)
		}
		return payroll.Payrun{}, fmt.Errorf("failed to get payrun %s: %w", id, err)
	}

	return p, nil
}

func (r *payrunRepository) LockByID(ctx context.Context, id string) (payroll.Payrun, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payrunColumns + ` FROM payruns WHERE id = $1 FOR UPDATE NOWAIT`

	p, err := scanPayrun(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Payrun{}, fmt.Errorf("payrun %s: %w", id, payroll.ErrPayrunNotFound)
		}
		if hasCode(err, codeLockNotAvailable) {
			return payroll.Payrun{}, fmt.Errorf("payrun %s: %w", id, payroll.ErrConcurrentModification)
		}
		return payroll.Payrun{}, fmt.Errorf("failed to lock payrun %s: %w", id, err)
	}

	return p, nil
}

func (r *payrunRepository) List(ctx context.Context, filter payroll.PayrunFilter) ([]payroll.Payrun, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseQuery := ` FROM payruns WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filter.Month != nil {
		baseQuery += fmt.Sprintf(" AND month = $%d", argIdx)
		args = append(args, *filter.Month)
		argIdx++
	}
	if filter.Year != nil {
		baseQuery += fmt.Sprintf(" AND year = $%d", argIdx)
		args = append(args, *filter.Year)
		argIdx++
	}
	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	// Count query
	var totalCount int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*)"+baseQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count payruns: %w", err)
	}

	// Pagination
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	offset := (filter.Page - 1) * filter.Limit

	query := `SELECT ` + payrunColumns + baseQuery +
		fmt.Sprintf(" ORDER BY year DESC, month DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payruns: %w", err)
	}
	defer rows.Close()

	var payruns []payroll.Payrun
	for rows.Next() {
		p, err := scanPayrun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payrun: %w", err)
		}
		payruns = append(payruns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate payruns: %w", err)
	}

	return payruns, totalCount, nil
}

func (r *payrunRepository) Update(ctx context.Context, payrun payroll.Payrun) (payroll.Payrun, error) {
	q := GetQuerier(ctx, r.db)

	warnings, err := encodeWarnings(payrun.Warnings)
	if err != nil {
		return payroll.Payrun{}, fmt.Errorf("failed to encode warnings of payrun %s: %w", payrun.ID, err)
	}

	query := `
		UPDATE payruns SET
			status = $3,
			employee_count = $4,
			total_gross_wage = $5,
			total_deductions = $6,
			total_net_wage = $7,
			total_employer_contribution = $8,
			warnings = $9,
			processed_at = $10,
			validated_at = $11,
			paid_at = $12,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING ` + payrunColumns

	updated, err := scanPayrun(q.QueryRow(ctx, query,
		payrun.ID, payrun.Version, payrun.Status,
		payrun.EmployeeCount, payrun.TotalGrossWage, payrun.TotalDeductions, payrun.TotalNetWage, payrun.TotalEmployerContribution,
		warnings, payrun.ProcessedAt, payrun.ValidatedAt, payrun.PaidAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Payrun{}, fmt.Errorf("payrun %s version %d: %w", payrun.ID, payrun.Version, payroll.ErrConcurrentModification)
		}
		return payroll.Payrun{}, fmt.Errorf("failed to update payrun %s: %w", payrun.ID, err)
	}

	return updated, nil
}

func (r *payrunRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	result, err := q.Exec(ctx, `DELETE FROM payruns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete payrun %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("payrun %s: %w", id, payroll.ErrPayrunNotFound)
	}

	return nil
}
