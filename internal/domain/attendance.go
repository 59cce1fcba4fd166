package domain

import "time"

// Attendance represents a user's registration for an event
// Owned by an external service; consumed read-only by the reporting engine
type Attendance struct {
	ID      int64
	EventID int64

	// UserID is nil for external/guest attendees
	UserID *int64

	CheckedInAt *time.Time
}

// IsExternal returns true for guest attendees without a platform account
func (a *Attendance) IsExternal() bool {
	return a.UserID == nil
}

// AttendanceWithWindow is an attendance joined with its event's title and window
// Consumed by the double-booked-users report
type AttendanceWithWindow struct {
	Attendance
	EventTitle string
	Window     TimeWindow
}
