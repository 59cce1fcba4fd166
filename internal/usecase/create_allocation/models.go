package create_allocation

import (
	"time"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
)

// Request модель запроса на создание аллокации для существующего события
type Request struct {
	ResourceID int64 // ID ресурса
	EventID    int64 // ID события
	Quantity   int   // Количество (положительное)
}

// EventSpec описание события для workflow создания события вместе с аллокациями
type EventSpec struct {
	Title          string
	StartTime      time.Time
	EndTime        time.Time
	OrganizationID *int64
	ParentEventID  *int64
}

// AllocationSpec описание одной аллокации в составе события
type AllocationSpec struct {
	ResourceID int64
	Quantity   int
}

// WithEventRequest модель запроса создания события вместе с аллокациями (всё или ничего)
type WithEventRequest struct {
	Event       EventSpec
	Allocations []AllocationSpec
}

// Response модель ответа с созданной аллокацией
type Response struct {
	ID         int64
	ResourceID int64
	EventID    int64
	Quantity   int

	// Арифметика доступности на момент проверки (до записи)
	Availability domain.AvailabilityResult

	CreatedAt time.Time
	UpdatedAt time.Time
}

// WithEventResponse модель ответа workflow создания события с аллокациями
type WithEventResponse struct {
	EventID     int64
	Allocations []Response
}

func fromDomainAllocation(alloc *domain.Allocation, availability domain.AvailabilityResult) Response {
	return Response{
		ID:           alloc.ID,
		ResourceID:   alloc.ResourceID,
		EventID:      alloc.EventID,
		Quantity:     alloc.Quantity,
		Availability: availability,
		CreatedAt:    alloc.CreatedAt,
		UpdatedAt:    alloc.UpdatedAt,
	}
}
