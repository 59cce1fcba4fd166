package domain

import "time"

// EventStatus represents the lifecycle status of an event
// Event lifecycle is owned by an external service; this engine only needs
// to know which statuses release held capacity
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusCancelled EventStatus = "cancelled"
)

// Event represents an externally-owned event referenced by allocations
type Event struct {
	ID             int64
	Title          string
	StartTime      time.Time
	EndTime        time.Time
	Status         EventStatus
	OrganizationID *int64
	ParentEventID  *int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Window returns the event's half-open time window
func (e *Event) Window() TimeWindow {
	return TimeWindow{Start: e.StartTime, End: e.EndTime}
}

// IsCancelled returns true if the event no longer holds capacity
func (e *Event) IsCancelled() bool {
	return e.Status == EventStatusCancelled
}

// HasParent returns true if the event is nested under another event
func (e *Event) HasParent() bool {
	return e.ParentEventID != nil
}
