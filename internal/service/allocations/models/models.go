package models

import (
	"time"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
)

// AllocationResponse модель ответа с данными аллокации
type AllocationResponse struct {
	ID         int64     `json:"id"`
	ResourceID int64     `json:"resourceId"`
	EventID    int64     `json:"eventId"`
	Quantity   int       `json:"quantity"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// AllocationListResponse модель ответа со списком аллокаций
type AllocationListResponse struct {
	Allocations []AllocationResponse `json:"allocations"`
}

// FromDomainAllocation конвертирует доменную модель в response
func FromDomainAllocation(alloc *domain.Allocation) *AllocationResponse {
	return &AllocationResponse{
		ID:         alloc.ID,
		ResourceID: alloc.ResourceID,
		EventID:    alloc.EventID,
		Quantity:   alloc.Quantity,
		CreatedAt:  alloc.CreatedAt,
		UpdatedAt:  alloc.UpdatedAt,
	}
}

// FromDomainAllocationList конвертирует список доменных моделей в response
func FromDomainAllocationList(allocs []*domain.Allocation) *AllocationListResponse {
	out := make([]AllocationResponse, 0, len(allocs))
	for _, a := range allocs {
		out = append(out, *FromDomainAllocation(a))
	}
	return &AllocationListResponse{Allocations: out}
}
