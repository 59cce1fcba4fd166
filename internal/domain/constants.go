package domain

// Business validation constants
const (
	MinAllocationQuantity = 1
	MaxAllocationQuantity = 100_000

	MaxResourceNameLength = 255
)

// Reporting defaults
const (
	// DefaultUnderutilizedThresholdPercent utilization below this share of
	// booked-hours-per-resource flags a resource as underutilized
	DefaultUnderutilizedThresholdPercent = 20.0

	// DefaultExternalAttendeeThreshold minimum number of guest attendees
	// for an event to appear in the external-attendee report
	DefaultExternalAttendeeThreshold = 10
)
