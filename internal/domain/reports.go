package domain

import "time"

// ViolationKind classifies a constraint violation found by the reporting engine
type ViolationKind string

const (
	ViolationExclusiveDoubleBooking  ViolationKind = "exclusive_double_booking"
	ViolationShareableOverAllocation ViolationKind = "shareable_over_allocation"
	ViolationConsumableExcess        ViolationKind = "consumable_excess"
)

// HierarchyViolationKind classifies a parent/child window violation
type HierarchyViolationKind string

const (
	HierarchyStartsBeforeParent HierarchyViolationKind = "starts_before_parent"
	HierarchyEndsAfterParent    HierarchyViolationKind = "ends_after_parent"
)

// DoubleBookedUser one pair of overlapping attendances held by the same user
type DoubleBookedUser struct {
	UserID int64

	FirstEventID    int64
	FirstEventTitle string
	FirstEventStart time.Time

	SecondEventID    int64
	SecondEventTitle string
	SecondEventStart time.Time
}

// ConstraintViolation a resource whose overlapping allocation set breaks its type constraint
type ConstraintViolation struct {
	ResourceID   int64
	ResourceName string
	Kind         ViolationKind

	// EventIDs of the allocations participating in the violating group
	EventIDs []int64

	AllocatedQuantity int
	Limit             int
}

// HierarchyViolation a child event whose window escapes its parent's window
type HierarchyViolation struct {
	EventID       int64
	EventTitle    string
	ParentEventID int64
	ParentTitle   string
	Kind          HierarchyViolationKind
}

// ResourceUtilization per (organization, resource) usage aggregate
type ResourceUtilization struct {
	OrganizationID *int64
	ResourceID     int64
	ResourceName   string

	TotalBookedHours    float64
	PeakConcurrentUsage int
	Underutilized       bool
}

// ExternalAttendeeEvent an event whose guest attendee count met the caller's threshold
type ExternalAttendeeEvent struct {
	EventID       int64
	EventTitle    string
	EventStart    time.Time
	ExternalCount int
}
