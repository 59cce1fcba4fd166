package update_allocation

import (
	"errors"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
)

var (
	// ErrAllocationNotFound возвращается, когда аллокация не найдена
	ErrAllocationNotFound = errors.New("update_allocation: allocation not found")

	// ErrResourceNotFound возвращается, когда целевой ресурс не найден
	ErrResourceNotFound = errors.New("update_allocation: resource not found")

	// ErrEventCancelled возвращается при попытке изменить аллокацию отмененного события
	ErrEventCancelled = errors.New("update_allocation: event is cancelled")

	// ErrInsufficientCapacity возвращается, когда новое количество превышает остаток
	ErrInsufficientCapacity = errors.New("update_allocation: insufficient capacity")

	// ErrConcurrencyCapExceeded возвращается, когда превышен лимит одновременных бронирований
	ErrConcurrencyCapExceeded = errors.New("update_allocation: concurrency cap exceeded")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("update_allocation: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("update_allocation: internal error")
)

// CapacityError отказ по мощности вместе с полной арифметикой доступности
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

func newCapacityError(result domain.AvailabilityResult, requestedQuantity int) *CapacityError {
	reason := ErrInsufficientCapacity
	if result.Details.RemainingQuantity >= requestedQuantity &&
		result.Details.RemainingConcurrentCapacity != nil &&
		*result.Details.RemainingConcurrentCapacity < 1 {
		reason = ErrConcurrencyCapExceeded
	}
	return &CapacityError{Reason: reason, Result: result}
}
