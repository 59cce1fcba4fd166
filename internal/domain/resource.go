package domain

import "time"

// ResourceType determines the capacity semantics of a resource
type ResourceType string

const (
	// TypeExclusive at most TotalQuantity units may be held by overlapping bookings
	TypeExclusive ResourceType = "exclusive"

	// TypeShareable bounded by both aggregate quantity and a cap on simultaneous bookings
	TypeShareable ResourceType = "shareable"

	// TypeConsumable a depletable stock drawn down by bookings, not time-shared
	TypeConsumable ResourceType = "consumable"
)

// IsValid returns true if the type is one of the known resource types
func (t ResourceType) IsValid() bool {
	return t == TypeExclusive || t == TypeShareable || t == TypeConsumable
}

// Resource represents a bookable resource (room, equipment, consumable supply)
type Resource struct {
	ID   int64
	Name string
	Type ResourceType

	// TotalQuantity is the pool size for exclusive/shareable resources
	// and the standing stock level for consumables
	TotalQuantity int

	// MaxConcurrentUsage caps the number of simultaneously overlapping
	// allocations; set iff Type == TypeShareable
	MaxConcurrentUsage *int

	// OrganizationID binds the resource to one organization; nil = global scope
	OrganizationID *int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsGlobal returns true if the resource is visible to all organizations
func (r *Resource) IsGlobal() bool {
	return r.OrganizationID == nil
}

// VisibleTo returns true if the resource is within the caller's visibility scope
// Global resources are visible to everyone; org-bound resources only to that organization
func (r *Resource) VisibleTo(organizationID *int64) bool {
	if r.IsGlobal() {
		return true
	}
	return organizationID != nil && *organizationID == *r.OrganizationID
}

// Validate checks the resource invariants
func (r *Resource) Validate() error {
	if !r.Type.IsValid() {
		return ErrUnknownResourceType
	}
	if r.TotalQuantity < 0 {
		return ErrNegativeQuantity
	}
	// maxConcurrentUsage is set iff the resource is shareable
	if r.Type == TypeShareable && r.MaxConcurrentUsage == nil {
		return ErrMissingConcurrencyCap
	}
	if r.Type != TypeShareable && r.MaxConcurrentUsage != nil {
		return ErrUnexpectedConcurrencyCap
	}
	if r.MaxConcurrentUsage != nil && *r.MaxConcurrentUsage < 1 {
		return ErrInvalidConcurrencyCap
	}
	return nil
}
