package create_allocation

import (
	"time"

	"github.com/m04kA/SMC-ResourceService/internal/api/handlers"
	createAllocation "github.com/m04kA/SMC-ResourceService/internal/usecase/create_allocation"
)

// CreateAllocationRequest модель запроса на создание аллокации
type CreateAllocationRequest struct {
	ResourceID int64 `json:"resourceId"`
	EventID    int64 `json:"eventId"`
	Quantity   int   `json:"quantity"`
}

// AllocationResponse модель ответа с созданной аллокацией
type AllocationResponse struct {
	ID           int64                     `json:"id"`
	ResourceID   int64                     `json:"resourceId"`
	EventID      int64                     `json:"eventId"`
	Quantity     int                       `json:"quantity"`
	Availability handlers.AvailabilityJSON `json:"availability"`
	CreatedAt    time.Time                 `json:"createdAt"`
	UpdatedAt    time.Time                 `json:"updatedAt"`
}

func fromUseCaseResponse(resp *createAllocation.Response) *AllocationResponse {
	return &AllocationResponse{
		ID:           resp.ID,
		ResourceID:   resp.ResourceID,
		EventID:      resp.EventID,
		Quantity:     resp.Quantity,
		Availability: handlers.FromDomainAvailability(resp.Availability),
		CreatedAt:    resp.CreatedAt,
		UpdatedAt:    resp.UpdatedAt,
	}
}
