package update_allocation

import (
	"time"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
)

// Request модель запроса на изменение аллокации
// Nil-поля не меняются; хотя бы одно должно быть задано
type Request struct {
	AllocationID int64
	Quantity     *int   // Новое количество
	ResourceID   *int64 // Новый ресурс (перенос брони)
}

// Response модель ответа с обновленной аллокацией
type Response struct {
	ID         int64
	ResourceID int64
	EventID    int64
	Quantity   int

	// Арифметика доступности на момент перевалидации
	Availability domain.AvailabilityResult

	CreatedAt time.Time
	UpdatedAt time.Time
}
