package payroll

import (
	"time"
)

// IsWorkingDay reports whether weekday falls inside a week of daysPerWeek
// working days counted from Monday (5 = Mon-Fri, 6 = Mon-Sat, 7 = every day).
func IsWorkingDay(weekday time.Weekday, daysPerWeek int) bool {
	idx := (int(weekday) + 6) % 7 // Monday = 0
	return idx < daysPerWeek
}

// WorkingDaysInMonth counts the working days of the month. Holidays are not modeled.
func WorkingDaysInMonth(month, year, daysPerWeek int) int {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	count := 0
	for d := start; d.Month() == start.Month(); d = d.AddDate(0, 0, 1) {
		if IsWorkingDay(d.Weekday(), daysPerWeek) {
			count++
		}
	}
	return count
}

// DaysInMonth returns the number of calendar days in the month.
func DaysInMonth(month, year int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
