package payroll

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/employee"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	longAgo      = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	afterJanuary = time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
)

func jan(day int) time.Time {
	return time.Date(2024, time.January, day, 0, 0, 0, 0, time.UTC)
}

// januaryRecords builds records for every weekday of January 2024.
func januaryRecords(statusFor func(day time.Time) attendance.Status) []attendance.Record {
	var records []attendance.Record
	for d := jan(1); d.Month() == time.January; d = d.AddDate(0, 0, 1) {
		if !IsWorkingDay(d.Weekday(), 5) {
			continue
		}
		if status := statusFor(d); status != "" {
			records = append(records, attendance.Record{EmployeeID: "employee-1", Date: d, Status: status})
		}
	}
	return records
}

func allPresent(time.Time) attendance.Status { return attendance.StatusPresent }

func TestSummarize_FullAttendance(t *testing.T) {
	s := summarize(januaryRecords(allPresent), nil, 1, 2024, 5, longAgo, afterJanuary)

	assert.Equal(t, 31, s.DaysInMonth)
	assertDecimal(t, "23", s.PresentDays)
	assertDecimal(t, "0", s.AbsentDays)
	assertDecimal(t, "0", s.PaidTimeOff)
	assertDecimal(t, "23", s.WorkedDays)
}

func TestSummarize_NoRecordsCountsAbsent(t *testing.T) {
	s := summarize(nil, nil, 1, 2024, 5, longAgo, afterJanuary)

	assertDecimal(t, "0", s.PresentDays)
	assertDecimal(t, "23", s.AbsentDays)
	assertDecimal(t, "0", s.WorkedDays)
}

func TestSummarize_WeekendRecordsIgnored(t *testing.T) {
	records := []attendance.Record{
		{EmployeeID: "employee-1", Date: jan(6), Status: attendance.StatusPresent}, // Saturday
		{EmployeeID: "employee-1", Date: jan(7), Status: attendance.StatusPresent}, // Sunday
	}

	s := summarize(records, nil, 1, 2024, 5, longAgo, afterJanuary)

	assertDecimal(t, "0", s.PresentDays)
	assertDecimal(t, "23", s.AbsentDays)
}

func TestSummarize_ApprovedLeave(t *testing.T) {
	leaves := []attendance.ApprovedLeave{
		{EmployeeID: "employee-1", StartDate: jan(1), EndDate: jan(2)},
		{EmployeeID: "employee-1", StartDate: jan(3), EndDate: jan(3), IsHalfDay: true},
	}

	s := summarize(nil, leaves, 1, 2024, 5, longAgo, afterJanuary)

	assertDecimal(t, "2.5", s.PaidTimeOff)
	assertDecimal(t, "20", s.AbsentDays)
	assertDecimal(t, "2.5", s.WorkedDays)
}

func TestSummarize_FullDayLeaveWinsOverHalfDay(t *testing.T) {
	leaves := []attendance.ApprovedLeave{
		{EmployeeID: "employee-1", StartDate: jan(2), EndDate: jan(2), IsHalfDay: true},
		{EmployeeID: "employee-1", StartDate: jan(1), EndDate: jan(5)},
	}
	records := januaryRecords(func(d time.Time) attendance.Status {
		if d.Day() <= 5 {
			return ""
		}
		return attendance.StatusPresent
	})

	s := summarize(records, leaves, 1, 2024, 5, longAgo, afterJanuary)

	assertDecimal(t, "18", s.PresentDays)
	assertDecimal(t, "5", s.PaidTimeOff)
	assertDecimal(t, "0", s.AbsentDays)
	assertDecimal(t, "23", s.WorkedDays)
}

func TestSummarize_StatusRules(t *testing.T) {
	tests := []struct {
		name    string
		status  attendance.Status
		leave   bool
		present string
		absent  string
		pto     string
	}{
		{"present", attendance.StatusPresent, false, "1", "22", "0"},
		{"absent", attendance.StatusAbsent, false, "0", "23", "0"},
		{"half day without leave", attendance.StatusHalfDay, false, "0.5", "22", "0"},
		{"half day with approved leave", attendance.StatusHalfDay, true, "0.5", "22", "0.5"},
		{"leave with approval", attendance.StatusLeave, true, "0", "22", "1"},
		{"leave without approval", attendance.StatusLeave, false, "0", "23", "0"},
		{"holiday", attendance.StatusHoliday, false, "0", "22", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Only January 2nd carries a record; the other 22 weekdays are absent.
			records := []attendance.Record{{EmployeeID: "employee-1", Date: jan(2), Status: tt.status}}
			var leaves []attendance.ApprovedLeave
			if tt.leave {
				leaves = append(leaves, attendance.ApprovedLeave{EmployeeID: "employee-1", StartDate: jan(2), EndDate: jan(2)})
			}

			s := summarize(records, leaves, 1, 2024, 5, longAgo, afterJanuary)

			assertDecimal(t, tt.present, s.PresentDays)
			assertDecimal(t, tt.absent, s.AbsentDays)
			assertDecimal(t, tt.pto, s.PaidTimeOff)
		})
	}
}

func TestSummarize_MidMonthJoiner(t *testing.T) {
	s := summarize(januaryRecords(allPresent), nil, 1, 2024, 5, jan(15), afterJanuary)

	assertDecimal(t, "13", s.PresentDays)
	assertDecimal(t, "0", s.AbsentDays)
	assertDecimal(t, "13", s.WorkedDays)
}

func TestSummarize_OpenMonthStopsAtToday(t *testing.T) {
	now := time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)

	s := summarize(nil, nil, 1, 2024, 5, longAgo, now)

	// 1-5, 8 and 9 are past; today has no record yet and is not counted.
	assertDecimal(t, "7", s.AbsentDays)
	assertDecimal(t, "0", s.WorkedDays)
}

func TestAttendanceSummarizer_Summarize(t *testing.T) {
	store := newMemStore()
	store.markAttendance("employee-1", 1, 2024, func(d time.Time) attendance.Status {
		if d.Day() == 31 {
			return attendance.StatusLeave
		}
		return attendance.StatusPresent
	})
	store.leaves["employee-1"] = []attendance.ApprovedLeave{
		{EmployeeID: "employee-1", StartDate: jan(31), EndDate: jan(31)},
	}

	summarizer := NewAttendanceSummarizer(fakeAttendanceRepo{store: store}, func() time.Time { return afterJanuary })
	s, err := summarizer.Summarize(context.Background(), employee.Employee{ID: "employee-1", HireDate: longAgo}, 1, 2024, 5)
	require.NoError(t, err)

	assertDecimal(t, "22", s.PresentDays)
	assertDecimal(t, "0", s.AbsentDays)
	assertDecimal(t, "1", s.PaidTimeOff)
	assertDecimal(t, "23", s.WorkedDays)
}
