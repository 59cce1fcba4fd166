package domain

import "time"

// Allocation represents a booking of a resource quantity against an event
// Multiple allocations of the same resource to the same event are legal;
// they collapse to a summed quantity for capacity purposes
type Allocation struct {
	ID         int64
	ResourceID int64
	EventID    int64
	Quantity   int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AllocationWithWindow is an allocation joined with its owning event's time window
// Produced by the overlap index and consumed by the capacity check
type AllocationWithWindow struct {
	Allocation
	EventTitle string
	Window     TimeWindow
}

// SumQuantities returns the total quantity across allocations
func SumQuantities(allocs []AllocationWithWindow) int {
	total := 0
	for _, a := range allocs {
		total += a.Quantity
	}
	return total
}

// CountDistinctEvents returns the number of distinct events holding allocations
// Used for the shareable concurrency constraint: several allocations on one
// event count as a single concurrent usage
func CountDistinctEvents(allocs []AllocationWithWindow) int {
	return CountDistinctEventsExcluding(allocs, 0)
}

// CountDistinctEventsExcluding counts distinct events, skipping excludeEventID.
// The excluded event's allocations stay in quantity sums; it only stops holding
// an extra concurrency slot (it already occupies its own)
func CountDistinctEventsExcluding(allocs []AllocationWithWindow, excludeEventID int64) int {
	seen := make(map[int64]struct{}, len(allocs))
	for _, a := range allocs {
		if a.EventID == excludeEventID {
			continue
		}
		seen[a.EventID] = struct{}{}
	}
	return len(seen)
}
