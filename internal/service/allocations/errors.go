package allocations

import "errors"

var (
	// ErrAllocationNotFound возвращается, когда аллокация не найдена
	ErrAllocationNotFound = errors.New("service.allocations: allocation not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("service.allocations: invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service.allocations: internal error")
)
