package domain

import "time"

// TimeWindow represents a half-open time interval [Start, End)
// All comparisons are done on instants; wall-clock formatting is a presentation concern
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NewTimeWindow creates a time window from two instants
func NewTimeWindow(start, end time.Time) TimeWindow {
	return TimeWindow{Start: start, End: end}
}

// IsValid returns true if the window is well-formed (start strictly before end)
func (w TimeWindow) IsValid() bool {
	return w.Start.Before(w.End)
}

// Overlaps returns true if two half-open windows intersect
// Back-to-back windows ([10:00,11:00) and [11:00,12:00)) do not overlap
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// Contains returns true if other lies fully within w
func (w TimeWindow) Contains(other TimeWindow) bool {
	return !other.Start.Before(w.Start) && !other.End.After(w.End)
}

// Duration returns the length of the window
func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Hours returns the length of the window in hours
func (w TimeWindow) Hours() float64 {
	return w.Duration().Hours()
}
