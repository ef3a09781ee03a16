package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

// GetAttendanceRecords implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetAttendanceRecords(ctx context.Context, employeeID string, month, year int) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)
	start, end := payroll.PayPeriod(month, year)

	query := `
		SELECT employee_id, date, status
		FROM attendances
		WHERE employee_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance records: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		var r attendance.Record
		if err := rows.Scan(&r.EmployeeID, &r.Date, &r.Status); err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		if !r.Status.IsValid() {
			return nil, fmt.Errorf("attendance of employee %s on %s has status %q: %w",
				employeeID, r.Date.Format("2006-01-02"), r.Status, attendance.ErrInvalidStatus)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance records: %w", err)
	}

	return records, nil
}

// GetApprovedLeaves implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetApprovedLeaves(ctx context.Context, employeeID string, month, year int) ([]attendance.ApprovedLeave, error) {
	q := GetQuerier(ctx, a.db)
	start, end := payroll.PayPeriod(month, year)

	query := `
		SELECT employee_id, start_date, end_date, is_half_day
		FROM leave_requests
		WHERE employee_id = $1 AND status = 'approved'
			AND start_date <= $3 AND end_date >= $2
		ORDER BY start_date
	`

	rows, err := q.Query(ctx, query, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get approved leaves: %w", err)
	}
	defer rows.Close()

	var leaves []attendance.ApprovedLeave
	for rows.Next() {
		var l attendance.ApprovedLeave
		if err := rows.Scan(&l.EmployeeID, &l.StartDate, &l.EndDate, &l.IsHalfDay); err != nil {
			return nil, fmt.Errorf("failed to scan approved leave: %w", err)
		}
		leaves = append(leaves, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate approved leaves: %w", err)
	}

	return leaves, nil
}
