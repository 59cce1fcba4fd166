package create_allocation

import (
	"errors"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
)

var (
	// ErrResourceNotFound возвращается, когда ресурс не найден
	ErrResourceNotFound = errors.New("create_allocation: resource not found")

	// ErrEventNotFound возвращается, когда событие не найдено
	ErrEventNotFound = errors.New("create_allocation: event not found")

	// ErrEventCancelled возвращается при попытке бронирования на отмененное событие
	ErrEventCancelled = errors.New("create_allocation: event is cancelled")

	// ErrInsufficientCapacity возвращается, когда запрошенное количество превышает остаток
	ErrInsufficientCapacity = errors.New("create_allocation: insufficient capacity")

	// ErrConcurrencyCapExceeded возвращается, когда превышен лимит одновременных бронирований
	ErrConcurrencyCapExceeded = errors.New("create_allocation: concurrency cap exceeded")

	// ErrInvalidWindow возвращается при некорректном окне события (start >= end)
	ErrInvalidWindow = errors.New("create_allocation: event window start must be before end")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_allocation: invalid input data")

	// ErrCompensationFailed ошибка компенсации: не удалось удалить осиротевшее
	// событие после провала аллокаций. Логируется, но не возвращается вызывающему -
	// исходная ошибка валидации информативнее
	ErrCompensationFailed = errors.New("create_allocation: failed to delete orphaned event")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_allocation: internal error")
)

// CapacityError отказ по мощности вместе с полной арифметикой доступности,
// чтобы вызывающий мог объяснить отказ без повторного запроса
type CapacityError struct {
	Reason error
	Result domain.AvailabilityResult
}

func (e *CapacityError) Error() string {
	return e.Reason.Error()
}

func (e *CapacityError) Unwrap() error {
	return e.Reason
}

// newCapacityError выбирает причину отказа: для shareable-ресурса с запасом
// по количеству, но исчерпанной конкурентностью - лимит одновременных бронирований
func newCapacityError(result domain.AvailabilityResult, requestedQuantity int) *CapacityError {
	reason := ErrInsufficientCapacity
	if result.Details.RemainingQuantity >= requestedQuantity &&
		result.Details.RemainingConcurrentCapacity != nil &&
		*result.Details.RemainingConcurrentCapacity < 1 {
		reason = ErrConcurrencyCapExceeded
	}
	return &CapacityError{Reason: reason, Result: result}
}
