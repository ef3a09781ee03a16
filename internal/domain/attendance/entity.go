package attendance

import (
	"time"
)

type Status string

const (
	StatusPresent Status = "PRESENT"
	StatusAbsent  Status = "ABSENT"
	StatusHalfDay Status = "HALF_DAY"
	StatusLeave   Status = "LEAVE"
	StatusHoliday Status = "HOLIDAY"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusHalfDay, StatusLeave, StatusHoliday:
		return true
	}
	return false
}

// Record is one employee's attendance status for one calendar day.
type Record struct {
	EmployeeID string
	Date       time.Time
	Status     Status
}

// ApprovedLeave is an approved leave request covering StartDate..EndDate inclusive.
type ApprovedLeave struct {
	EmployeeID string
	StartDate  time.Time
	EndDate    time.Time
	IsHalfDay  bool
}

// Covers reports whether the leave includes the given calendar day.
func (l ApprovedLeave) Covers(day time.Time) bool {
	d := truncateDay(day)
	return !d.Before(truncateDay(l.StartDate)) && !d.After(truncateDay(l.EndDate))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
