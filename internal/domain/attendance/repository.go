package attendance

import (
	"context"
)

// AttendanceRepository reads the attendance and leave data owned by the
// attendance and leave modules. Both methods return records for one calendar month.
type AttendanceRepository interface {
	GetAttendanceRecords(ctx context.Context, employeeID string, month, year int) ([]Record, error)
	// GetApprovedLeaves returns approved leaves overlapping the month.
	GetApprovedLeaves(ctx context.Context, employeeID string, month, year int) ([]ApprovedLeave, error)
}
