package resources

import "errors"

var (
	// ErrResourceNotFound возвращается, когда ресурс не найден или не виден организации
	ErrResourceNotFound = errors.New("service.resources: resource not found")

	// ErrNotConsumable возвращается при попытке пополнить запас нерасходуемого ресурса
	ErrNotConsumable = errors.New("service.resources: resource is not consumable")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("service.resources: invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service.resources: internal error")
)
