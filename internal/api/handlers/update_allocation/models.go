package update_allocation

import (
	"time"

	"github.com/m04kA/SMC-ResourceService/internal/api/handlers"
	updateAllocation "github.com/m04kA/SMC-ResourceService/internal/usecase/update_allocation"
)

// UpdateAllocationRequest модель запроса на изменение аллокации
// Nil-поля не меняются; хотя бы одно должно быть задано
type UpdateAllocationRequest struct {
	Quantity   *int   `json:"quantity,omitempty"`
	ResourceID *int64 `json:"resourceId,omitempty"`
}

// AllocationResponse модель ответа с обновленной аллокацией
type AllocationResponse struct {
	ID           int64                     `json:"id"`
	ResourceID   int64                     `json:"resourceId"`
	EventID      int64                     `json:"eventId"`
	Quantity     int                       `json:"quantity"`
	Availability handlers.AvailabilityJSON `json:"availability"`
	CreatedAt    time.Time                 `json:"createdAt"`
	UpdatedAt    time.Time                 `json:"updatedAt"`
}

func fromUseCaseResponse(resp *updateAllocation.Response) *AllocationResponse {
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
