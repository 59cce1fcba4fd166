package create_allocation

import (
	"fmt"
	"strings"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
)

// validateRequest валидирует запрос на создание аллокации
func validateRequest(req *Request) error {
	if req.ResourceID <= 0 {
		return fmt.Errorf("%w: resource_id must be positive", ErrInvalidInput)
	}
	if req.EventID <= 0 {
		return fmt.Errorf("%w: event_id must be positive", ErrInvalidInput)
	}
	return validateQuantity(req.Quantity)
}

// validateWithEventRequest валидирует запрос создания события вместе с аллокациями
func validateWithEventRequest(req *WithEventRequest) error {
	if strings.TrimSpace(req.Event.Title) == "" {
		return fmt.Errorf("%w: event title is required", ErrInvalidInput)
	}
	if len(req.Event.Title) > domain.MaxResourceNameLength {
		return fmt.Errorf("%w: event title exceeds %d characters", ErrInvalidInput, domain.MaxResourceNameLength)
	}
	if !req.Event.StartTime.Before(req.Event.EndTime) {
		return ErrInvalidWindow
	}
	if req.Event.ParentEventID != nil && *req.Event.ParentEventID <= 0 {
		return fmt.Errorf("%w: parent_event_id must be positive", ErrInvalidInput)
	}
	if len(req.Allocations) == 0 {
		return fmt.Errorf("%w: at least one allocation is required", ErrInvalidInput)
	}
	for i, spec := range req.Allocations {
		if spec.ResourceID <= 0 {
			return fmt.Errorf("%w: allocations[%d]: resource_id must be positive", ErrInvalidInput, i)
		}
		if err := validateQuantity(spec.Quantity); err != nil {
			return fmt.Errorf("allocations[%d]: %w", i, err)
		}
	}
	return nil
}

func validateQuantity(quantity int) error {
	if quantity < domain.MinAllocationQuantity {
		return fmt.Errorf("%w: quantity must be at least %d", ErrInvalidInput, domain.MinAllocationQuantity)
	}
	if quantity > domain.MaxAllocationQuantity {
		return fmt.Errorf("%w: quantity must not exceed %d", ErrInvalidInput, domain.MaxAllocationQuantity)
	}
	return nil
}
