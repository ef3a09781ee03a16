package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

var (
	oneDay  = decimal.NewFromInt(1)
	halfDay = decimal.RequireFromString("0.5")
)

// AttendanceSummarizer aggregates one employee's attendance and approved leave
// for a month into the day counts the calculator needs.
type AttendanceSummarizer struct {
	attendanceRepo attendance.AttendanceRepository
	now            func() time.Time
}

func NewAttendanceSummarizer(attendanceRepo attendance.AttendanceRepository, now func() time.Time) *AttendanceSummarizer {
	if now == nil {
		now = time.Now
	}
	return &AttendanceSummarizer{attendanceRepo: attendanceRepo, now: now}
}

func (s *AttendanceSummarizer) Summarize(ctx context.Context, emp employee.Employee, month, year, workingDaysPerWeek int) (payroll.AttendanceSummary, error) {
	records, err := s.attendanceRepo.GetAttendanceRecords(ctx, emp.ID, month, year)
	if err != nil {
		return payroll.AttendanceSummary{}, fmt.Errorf("failed to get attendance records for employee %s: %w", emp.ID, err)
	}

	leaves, err := s.attendanceRepo.GetApprovedLeaves(ctx, emp.ID, month, year)
	if err != nil {
		return payroll.AttendanceSummary{}, fmt.Errorf("failed to get approved leaves for employee %s: %w", emp.ID, err)
	}

	return summarize(records, leaves, month, year, workingDaysPerWeek, emp.HireDate, s.now()), nil
}

// summarize walks the working days of the month up to today. Days after today
// and days before hireDate count neither as present nor as absent.
func summarize(records []attendance.Record, leaves []attendance.ApprovedLeave, month, year, workingDaysPerWeek int, hireDate, now time.Time) payroll.AttendanceSummary {
	start, end := payroll.PayPeriod(month, year)
	today := truncateDay(now)
	hired := truncateDay(hireDate)

	limit := end
	if today.Before(limit) {
		limit = today
	}

	byDate := make(map[string]attendance.Status, len(records))
	for _, r := range records {
		byDate[r.Date.Format("2006-01-02")] = r.Status
	}

	summary := payroll.AttendanceSummary{
		DaysInMonth: DaysInMonth(month, year),
		PresentDays: decimal.Zero,
		AbsentDays:  decimal.Zero,
		PaidTimeOff: decimal.Zero,
	}

	for d := start; !d.After(limit); d = d.AddDate(0, 0, 1) {
		if !IsWorkingDay(d.Weekday(), workingDaysPerWeek) || d.Before(hired) {
			continue
		}

		leave, onLeave := coveringLeave(leaves, d)
		leaveCredit := oneDay
		if onLeave && leave.IsHalfDay {
			leaveCredit = halfDay
		}

		status, hasRecord := byDate[d.Format("2006-01-02")]
		switch {
		case !hasRecord:
			if onLeave {
				summary.PaidTimeOff = summary.PaidTimeOff.Add(leaveCredit)
			} else if d.Before(today) {
				summary.AbsentDays = summary.AbsentDays.Add(oneDay)
			}
		case status == attendance.StatusPresent:
			summary.PresentDays = summary.PresentDays.Add(oneDay)
		case status == attendance.StatusHalfDay:
			summary.PresentDays = summary.PresentDays.Add(halfDay)
			if onLeave {
				summary.PaidTimeOff = summary.PaidTimeOff.Add(halfDay)
			}
		case status == attendance.StatusAbsent:
			summary.AbsentDays = summary.AbsentDays.Add(oneDay)
		case status == attendance.StatusLeave:
			if onLeave {
				summary.PaidTimeOff = summary.PaidTimeOff.Add(leaveCredit)
			} else {
				summary.AbsentDays = summary.AbsentDays.Add(oneDay)
			}
		case status == attendance.StatusHoliday:
			summary.PaidTimeOff = summary.PaidTimeOff.Add(oneDay)
		}
	}

	summary.WorkedDays = summary.PresentDays.Add(summary.PaidTimeOff)
	return summary
}

// coveringLeave prefers a full-day leave when several leaves cover the day.
func coveringLeave(leaves []attendance.ApprovedLeave, day time.Time) (attendance.ApprovedLeave, bool) {
	var found attendance.ApprovedLeave
	ok := false
	for _, l := range leaves {
		if !l.Covers(day) {
			continue
		}
		if !ok || (found.IsHalfDay && !l.IsHalfDay) {
			found = l
			ok = true
		}
	}
	return found, ok
}
