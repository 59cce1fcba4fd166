package handlers

import (
	"net/http"
	"time"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
)

// AvailabilityDetailsJSON арифметика доступности в HTTP представлении
type AvailabilityDetailsJSON struct {
	TotalQuantity               int  `json:"totalQuantity"`
	AllocatedQuantity           int  `json:"allocatedQuantity"`
	RemainingQuantity           int  `json:"remainingQuantity"`
	MaxConcurrentUsage          *int `json:"maxConcurrentUsage,omitempty"`
	CurrentConcurrentUsage      int  `json:"currentConcurrentUsage"`
	RemainingConcurrentCapacity *int `json:"remainingConcurrentCapacity,omitempty"`
}

// ConflictJSON информационная строка конфликта
type ConflictJSON struct {
	EventID           int64     `json:"eventId"`
	EventTitle        string    `json:"eventTitle"`
	StartTime         time.Time `json:"startTime"`
	EndTime           time.Time `json:"endTime"`
	AllocatedQuantity int       `json:"allocatedQuantity"`
}

// AvailabilityJSON вердикт доступности в HTTP представлении (общая форма
// и для ответа проверки, и для тела отказа по мощности)
type AvailabilityJSON struct {
	Available           bool                    `json:"available"`
	AvailableQuantity   int                     `json:"availableQuantity"`
	Conflicts           []ConflictJSON          `json:"conflicts"`
	AvailabilityDetails AvailabilityDetailsJSON `json:"availabilityDetails"`
}

// CapacityRejectionJSON тело отказа по мощности: вызывающему не нужен
// второй запрос, чтобы объяснить "почему нельзя"
type CapacityRejectionJSON struct {
	Error string `json:"error"`
	AvailabilityJSON
}

// FromDomainAvailability конвертирует доменный вердикт в HTTP представление
func FromDomainAvailability(result domain.AvailabilityResult) AvailabilityJSON {
	conflicts := make([]ConflictJSON, 0, len(result.Conflicts))
	for _, c := range result.Conflicts {
		conflicts = append(conflicts, ConflictJSON{
			EventID:           c.EventID,
			EventTitle:        c.EventTitle,
			StartTime:         c.Window.Start,
			EndTime:           c.Window.End,
			AllocatedQuantity: c.AllocatedQuantity,
		})
	}
	return AvailabilityJSON{
		Available:         result.Available,
		AvailableQuantity: result.AvailableQuantity,
		Conflicts:         conflicts,
		AvailabilityDetails: AvailabilityDetailsJSON{
			TotalQuantity:               result.Details.TotalQuantity,
			AllocatedQuantity:           result.Details.AllocatedQuantity,
			RemainingQuantity:           result.Details.RemainingQuantity,
			MaxConcurrentUsage:          result.Details.MaxConcurrentUsage,
			CurrentConcurrentUsage:      result.Details.CurrentConcurrentUsage,
			RemainingConcurrentCapacity: result.Details.RemainingConcurrentCapacity,
		},
	}
}

// RespondCapacityRejection пишет отказ по мощности с полной арифметикой доступности
func RespondCapacityRejection(w http.ResponseWriter, status int, message string, result domain.AvailabilityResult) {
	RespondJSON(w, status, CapacityRejectionJSON{
		Error:            message,
		AvailabilityJSON: FromDomainAvailability(result),
	})
}
