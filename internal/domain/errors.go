package domain

import "errors"

var (
	// ErrUnknownResourceType returned for a resource type outside the closed set
	ErrUnknownResourceType = errors.New("domain: unknown resource type")

	// ErrNegativeQuantity returned when totalQuantity is negative
	ErrNegativeQuantity = errors.New("domain: total quantity must be non-negative")

	// ErrMissingConcurrencyCap returned when a shareable resource has no maxConcurrentUsage
	ErrMissingConcurrencyCap = errors.New("domain: shareable resource requires maxConcurrentUsage")

	// ErrUnexpectedConcurrencyCap returned when a non-shareable resource carries maxConcurrentUsage
	ErrUnexpectedConcurrencyCap = errors.New("domain: maxConcurrentUsage is only valid for shareable resources")

	// ErrInvalidConcurrencyCap returned when maxConcurrentUsage is below 1
	ErrInvalidConcurrencyCap = errors.New("domain: maxConcurrentUsage must be at least 1")

	// ErrInvalidWindow returned for a malformed window (start >= end)
	ErrInvalidWindow = errors.New("domain: window start must be before end")
)
