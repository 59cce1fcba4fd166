package check_availability

import "errors"

var (
	// ErrResourceNotFound возвращается, когда ресурс не найден или вне зоны видимости
	ErrResourceNotFound = errors.New("check_availability: resource not found")

	// ErrInvalidWindow возвращается при некорректном окне (start >= end)
	ErrInvalidWindow = errors.New("check_availability: window start must be before end")

	// ErrInvalidQuantity возвращается при неположительном запрошенном количестве
	ErrInvalidQuantity = errors.New("check_availability: requested quantity must be positive")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("check_availability: internal error")
)
