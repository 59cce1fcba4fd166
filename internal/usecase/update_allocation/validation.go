package update_allocation

import (
	"fmt"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
)

// validateRequest валидирует запрос на изменение аллокации
func validateRequest(req *Request) error {
	if req.AllocationID <= 0 {
		return fmt.Errorf("%w: allocation_id must be positive", ErrInvalidInput)
	}
	if req.Quantity == nil && req.ResourceID == nil {
		return fmt.Errorf("%w: at least one of quantity or resource_id must be set", ErrInvalidInput)
	}
	if req.ResourceID != nil && *req.ResourceID <= 0 {
		return fmt.Errorf("%w: resource_id must be positive", ErrInvalidInput)
	}
	if req.Quantity != nil {
		if *req.Quantity < domain.MinAllocationQuantity {
			return fmt.Errorf("%w: quantity must be at least %d", ErrInvalidInput, domain.MinAllocationQuantity)
		}
		if *req.Quantity > domain.MaxAllocationQuantity {
			return fmt.Errorf("%w: quantity must not exceed %d", ErrInvalidInput, domain.MaxAllocationQuantity)
		}
	}
	return nil
}
