package check_availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
	resourceRepo "github.com/m04kA/SMC-ResourceService/internal/infra/storage/resource"
)

// UseCase use case проверки доступности ресурса
//
// Read-only путь: выполняется без блокировок по недавнему снимку данных.
// Мутации прогоняют ту же проверку повторно внутри сериализуемой
// транзакции - см. usecase create_allocation
type UseCase struct {
	resourceRepo   ResourceRepository
	allocationRepo AllocationRepository
	logger         Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	resourceRepo ResourceRepository,
	allocationRepo AllocationRepository,
	logger Logger,
) *UseCase {
	return &UseCase{
		resourceRepo:   resourceRepo,
		allocationRepo: allocationRepo,
		logger:         logger,
	}
}

// Execute выполняет use case проверки доступности
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CheckAvailability: resource=%d, window=[%s, %s), quantity=%d",
		req.ResourceID, req.Window.Start.Format(timeFormat), req.Window.End.Format(timeFormat), req.RequestedQuantity)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CheckAvailability: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем ресурс
	resource, err := uc.resourceRepo.GetByID(ctx, req.ResourceID)
	if err != nil {
		if errors.Is(err, resourceRepo.ErrResourceNotFound) {
			uc.logger.Warn("CheckAvailability: resource id=%d not found", req.ResourceID)
			return nil, ErrResourceNotFound
		}
		uc.logger.Error("CheckAvailability: failed to get resource id=%d: %v", req.ResourceID, err)
		return nil, fmt.Errorf("%w: failed to get resource: %v", ErrInternal, err)
	}

	// 3. Проверяем зону видимости: ресурс вне зоны неотличим от отсутствующего
	if !resource.VisibleTo(req.OrganizationID) {
		uc.logger.Warn("CheckAvailability: resource id=%d not visible to org=%v", req.ResourceID, req.OrganizationID)
		return nil, ErrResourceNotFound
	}

	// 4. Получаем конкурирующие аллокации согласно семантике типа ресурса
	competing, err := uc.fetchCompeting(ctx, resource, req)
	if err != nil {
		uc.logger.Error("CheckAvailability: failed to get allocations for resource id=%d: %v", req.ResourceID, err)
		return nil, fmt.Errorf("%w: failed to get allocations: %v", ErrInternal, err)
	}

	// 5. Считаем доступность
	result := domain.CheckCapacity(resource, req.RequestedQuantity, competing)

	uc.logger.Info("CheckAvailability: resource=%d available=%t remaining=%d conflicts=%d",
		req.ResourceID, result.Available, result.Details.RemainingQuantity, len(result.Conflicts))

	return &Response{
		ResourceID:   resource.ID,
		ResourceName: resource.Name,
		ResourceType: resource.Type,
		Result:       result,
	}, nil
}

// fetchCompeting выбирает конкурирующие аллокации:
// для exclusive/shareable - пересекающиеся с окном,
// для consumable - все активные независимо от окна (запас списывается, а не разделяется по времени)
func (uc *UseCase) fetchCompeting(ctx context.Context, resource *domain.Resource, req *Request) ([]domain.AllocationWithWindow, error) {
	if resource.Type == domain.TypeConsumable {
		return uc.allocationRepo.GetActiveByResource(ctx, resource.ID, req.ExcludeEventID)
	}
	return uc.allocationRepo.GetOverlapping(ctx, resource.ID, req.Window.Start, req.Window.End, req.ExcludeEventID)
}

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.ResourceID <= 0 {
		return ErrResourceNotFound
	}
	if !req.Window.IsValid() {
		return ErrInvalidWindow
	}
	if req.RequestedQuantity < domain.MinAllocationQuantity {
		return ErrInvalidQuantity
	}
	return nil
}

const timeFormat = "2006-01-02T15:04:05Z07:00"
