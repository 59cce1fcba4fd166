package domain

// AvailabilityDetails carries the full capacity arithmetic so a caller can
// explain which constraint binds without a second round-trip
type AvailabilityDetails struct {
	TotalQuantity     int
	AllocatedQuantity int
	RemainingQuantity int

	// Concurrency fields are populated only for shareable resources
	MaxConcurrentUsage          *int
	CurrentConcurrentUsage      int
	RemainingConcurrentCapacity *int
}

// Conflict describes an existing allocation whose event window overlaps the
// candidate window. Informational: the available verdict is based on the
// remaining-quantity arithmetic alone, not on conflict presence
type Conflict struct {
	EventID           int64
	EventTitle        string
	Window            TimeWindow
	AllocatedQuantity int
}

// AvailabilityResult is the capacity verdict for a candidate booking
type AvailabilityResult struct {
	Available         bool
	AvailableQuantity int
	Conflicts         []Conflict
	Details           AvailabilityDetails
}

// CheckCapacity computes remaining capacity for a resource under its type semantics.
//
// allocs is the set of competing allocations, and its meaning depends on the type:
//   - exclusive/shareable: allocations whose event windows overlap the candidate
//     window (the overlap index output);
//   - consumable: ALL non-cancelled allocations of the resource regardless of
//     window. Consumables are depleted, not time-shared, so temporal overlap is
//     deliberately ignored here.
func CheckCapacity(resource *Resource, requestedQuantity int, allocs []AllocationWithWindow) AvailabilityResult {
	return CheckCapacityForEvent(resource, requestedQuantity, allocs, 0)
}

// CheckCapacityForEvent is CheckCapacity for a booking placed on behalf of
// ownEventID. The own event's allocations among allocs still count toward the
// quantity sums, but for shareable resources the event does not occupy an
// extra concurrency slot: it already holds one, and rearranging its quantities
// adds no new concurrent event. ownEventID 0 means allocs are all foreign
func CheckCapacityForEvent(resource *Resource, requestedQuantity int, allocs []AllocationWithWindow, ownEventID int64) AvailabilityResult {
	switch resource.Type {
	case TypeExclusive:
		return checkExclusive(resource, requestedQuantity, allocs)
	case TypeShareable:
		return checkShareable(resource, requestedQuantity, allocs, ownEventID)
	case TypeConsumable:
		return checkConsumable(resource, requestedQuantity, allocs)
	default:
		// Unknown type: nothing is available
		return AvailabilityResult{
			Available:         false,
			AvailableQuantity: 0,
			Conflicts:         []Conflict{},
			Details:           AvailabilityDetails{TotalQuantity: resource.TotalQuantity},
		}
	}
}

// checkExclusive: at most TotalQuantity units may be held by overlapping bookings
func checkExclusive(resource *Resource, requestedQuantity int, overlapping []AllocationWithWindow) AvailabilityResult {
	allocated := SumQuantities(overlapping)
	remaining := resource.TotalQuantity - allocated

	return AvailabilityResult{
		Available:         remaining >= requestedQuantity,
		AvailableQuantity: clampNonNegative(remaining),
		Conflicts:         buildConflicts(overlapping),
		Details: AvailabilityDetails{
			TotalQuantity:     resource.TotalQuantity,
			AllocatedQuantity: allocated,
			RemainingQuantity: remaining,
		},
	}
}

// checkShareable: the quantity constraint and the concurrency constraint must
// both pass. Both counts are reported so the caller can see which one binds
func checkShareable(resource *Resource, requestedQuantity int, overlapping []AllocationWithWindow, ownEventID int64) AvailabilityResult {
	allocated := SumQuantities(overlapping)
	remaining := resource.TotalQuantity - allocated

	concurrent := CountDistinctEventsExcluding(overlapping, ownEventID)

	maxConcurrent := 0
	if resource.MaxConcurrentUsage != nil {
		maxConcurrent = *resource.MaxConcurrentUsage
	}
	remainingConcurrent := maxConcurrent - concurrent

	quantityOK := remaining >= requestedQuantity
	concurrencyOK := remainingConcurrent >= 1

	return AvailabilityResult{
		Available:         quantityOK && concurrencyOK,
		AvailableQuantity: availableUnderConcurrency(remaining, concurrencyOK),
		Conflicts:         buildConflicts(overlapping),
		Details: AvailabilityDetails{
			TotalQuantity:               resource.TotalQuantity,
			AllocatedQuantity:           allocated,
			RemainingQuantity:           remaining,
			MaxConcurrentUsage:          resource.MaxConcurrentUsage,
			CurrentConcurrentUsage:      concurrent,
			RemainingConcurrentCapacity: &remainingConcurrent,
		},
	}
}

// checkConsumable: quantity arithmetic identical to exclusive, but applied to the
// standing stock - active is every non-cancelled allocation of the resource,
// not only temporally overlapping ones
func checkConsumable(resource *Resource, requestedQuantity int, active []AllocationWithWindow) AvailabilityResult {
	allocated := SumQuantities(active)
	remaining := resource.TotalQuantity - allocated

	return AvailabilityResult{
		Available:         remaining >= requestedQuantity,
		AvailableQuantity: clampNonNegative(remaining),
		Conflicts:         buildConflicts(active),
		Details: AvailabilityDetails{
			TotalQuantity:     resource.TotalQuantity,
			AllocatedQuantity: allocated,
			RemainingQuantity: remaining,
		},
	}
}

// buildConflicts converts competing allocations into informational conflict rows,
// collapsing multiple allocations of the same event into one row with a summed quantity
func buildConflicts(allocs []AllocationWithWindow) []Conflict {
	conflicts := make([]Conflict, 0, len(allocs))
	index := make(map[int64]int, len(allocs))

	for _, a := range allocs {
		if i, ok := index[a.EventID]; ok {
			conflicts[i].AllocatedQuantity += a.Quantity
			continue
		}
		index[a.EventID] = len(conflicts)
		conflicts = append(conflicts, Conflict{
			EventID:           a.EventID,
			EventTitle:        a.EventTitle,
			Window:            a.Window,
			AllocatedQuantity: a.Quantity,
		})
	}

	return conflicts
}

func availableUnderConcurrency(remaining int, concurrencyOK bool) int {
	if !concurrencyOK {
		return 0
	}
	return clampNonNegative(remaining)
}

func clampNonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
