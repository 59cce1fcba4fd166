package create_event_allocations

import (
	"time"

	"github.com/m04kA/SMC-ResourceService/internal/api/handlers"
	createAllocation "github.com/m04kA/SMC-ResourceService/internal/usecase/create_allocation"
)

// EventJSON описание создаваемого события
type EventJSON struct {
	Title          string `json:"title"`
	StartTime      string `json:"startTime"` // RFC3339
	EndTime        string `json:"endTime"`   // RFC3339
	OrganizationID *int64 `json:"organizationId,omitempty"`
	ParentEventID  *int64 `json:"parentEventId,omitempty"`
}

// AllocationSpecJSON описание одной аллокации в составе события
type AllocationSpecJSON struct {
	ResourceID int64 `json:"resourceId"`
	Quantity   int   `json:"quantity"`
}

// CreateEventWithAllocationsRequest модель запроса создания события вместе с аллокациями
type CreateEventWithAllocationsRequest struct {
	Event       EventJSON            `json:"event"`
	Allocations []AllocationSpecJSON `json:"allocations"`
}

// AllocationJSON созданная аллокация в ответе
type AllocationJSON struct {
	ID           int64                     `json:"id"`
	ResourceID   int64                     `json:"resourceId"`
	EventID      int64                     `json:"eventId"`
	Quantity     int                       `json:"quantity"`
	Availability handlers.AvailabilityJSON `json:"availability"`
	CreatedAt    time.Time                 `json:"createdAt"`
	UpdatedAt    time.Time                 `json:"updatedAt"`
}

// CreateEventWithAllocationsResponse модель ответа: событие и все его аллокации
type CreateEventWithAllocationsResponse struct {
	EventID     int64            `json:"eventId"`
	Allocations []AllocationJSON `json:"allocations"`
}

func (r *CreateEventWithAllocationsRequest) toUseCaseRequest(startTime, endTime time.Time) *createAllocation.WithEventRequest {
	allocations := make([]createAllocation.AllocationSpec, 0, len(r.Allocations))
	for _, a := range r.Allocations {
		allocations = append(allocations, createAllocation.AllocationSpec{
			ResourceID: a.ResourceID,
			Quantity:   a.Quantity,
		})
	}

	return &createAllocation.WithEventRequest{
		Event: createAllocation.EventSpec{
			Title:          r.Event.Title,
			StartTime:      startTime,
			EndTime:        endTime,
			OrganizationID: r.Event.OrganizationID,
			ParentEventID:  r.Event.ParentEventID,
		},
		Allocations: allocations,
	}
}

func fromUseCaseResponse(resp *createAllocation.WithEventResponse) *CreateEventWithAllocationsResponse {
	allocations := make([]AllocationJSON, 0, len(resp.Allocations))
	for _, a := range resp.Allocations {
		allocations = append(allocations, AllocationJSON{
			ID:           a.ID,
			ResourceID:   a.ResourceID,
			EventID:      a.EventID,
			Quantity:     a.Quantity,
			Availability: handlers.FromDomainAvailability(a.Availability),
			CreatedAt:    a.CreatedAt,
			UpdatedAt:    a.UpdatedAt,
		})
	}

	return &CreateEventWithAllocationsResponse{
		EventID:     resp.EventID,
		Allocations: allocations,
	}
}
