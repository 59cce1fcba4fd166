package update_allocation

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
	allocationRepo "github.com/m04kA/SMC-ResourceService/internal/infra/storage/allocation"
	resourceRepo "github.com/m04kA/SMC-ResourceService/internal/infra/storage/resource"
)

// UseCase use case изменения аллокации (количество и/или перенос на другой ресурс)
//
// Семантика "удалить и создать заново": новая конфигурация валидируется так,
// будто текущей аллокации не существует, поэтому собственное событие
// исключается из конкурирующих, а остальные аллокации того же события
// на целевом ресурсе учитываются явно
type UseCase struct {
	resourceRepo   ResourceRepository
	allocationRepo AllocationRepository
	eventRepo      EventRepository
	stockLedger    StockLedger
	txManager      TransactionManager
	logger         Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	resourceRepo ResourceRepository,
	allocationRepo AllocationRepository,
	eventRepo EventRepository,
	stockLedger StockLedger,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		resourceRepo:   resourceRepo,
		allocationRepo: allocationRepo,
		eventRepo:      eventRepo,
		stockLedger:    stockLedger,
		txManager:      txManager,
		logger:         logger,
	}
}

// Execute выполняет use case изменения аллокации
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("UpdateAllocation: allocation=%d, quantity=%v, resource=%v",
		req.AllocationID, ptrVal(req.Quantity), ptrVal(req.ResourceID))

	if err := validateRequest(req); err != nil {
		uc.logger.Warn("UpdateAllocation: validation failed: %v", err)
		return nil, err
	}

	var result *Response

	err := uc.inSerializable(ctx, func(txCtx context.Context) error {
		updated, err := uc.updateLocked(txCtx, req)
		if err != nil {
			return err
		}
		result = updated
		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("UpdateAllocation: successfully updated allocation id=%d", result.ID)
	return result, nil
}

func (uc *UseCase) updateLocked(ctx context.Context, req *Request) (*Response, error) {
	// 1. Текущее состояние аллокации
	alloc, err := uc.allocationRepo.GetByID(ctx, req.AllocationID)
	if err != nil {
		if errors.Is(err, allocationRepo.ErrAllocationNotFound) {
			uc.logger.Warn("UpdateAllocation: allocation id=%d not found", req.AllocationID)
			return nil, ErrAllocationNotFound
		}
		uc.logger.Error("UpdateAllocation: failed to get allocation id=%d: %v", req.AllocationID, err)
		return nil, fmt.Errorf("%w: failed to get allocation: %v", ErrInternal, err)
	}

	targetResourceID := alloc.ResourceID
	if req.ResourceID != nil {
		targetResourceID = *req.ResourceID
	}
	targetQuantity := alloc.Quantity
	if req.Quantity != nil {
		targetQuantity = *req.Quantity
	}

	// 2. Блокируем затронутые ресурсы в порядке возрастания ID - иначе
	// встречный перенос между теми же ресурсами может дать deadlock
	oldResource, targetResource, err := uc.lockResources(ctx, alloc.ResourceID, targetResourceID)
	if err != nil {
		return nil, err
	}

	// 3. Проверяем событие
	evt, err := uc.eventRepo.GetByID(ctx, alloc.EventID)
	if err != nil {
		uc.logger.Error("UpdateAllocation: failed to get event id=%d: %v", alloc.EventID, err)
		return nil, fmt.Errorf("%w: failed to get event: %v", ErrInternal, err)
	}
	if evt.IsCancelled() {
		uc.logger.Warn("UpdateAllocation: event id=%d is cancelled", alloc.EventID)
		return nil, ErrEventCancelled
	}

	// 4. Конкурирующие аллокации на целевом ресурсе без вклада самой аллокации
	competing, err := uc.fetchCompeting(ctx, targetResource, evt, alloc)
	if err != nil {
		uc.logger.Error("UpdateAllocation: failed to get allocations for resource id=%d: %v", targetResourceID, err)
		return nil, fmt.Errorf("%w: failed to get allocations: %v", ErrInternal, err)
	}

	availability := domain.CheckCapacityForEvent(targetResource, targetQuantity, competing, evt.ID)
	if !availability.Available {
		uc.logger.Warn("UpdateAllocation: capacity check failed for resource id=%d: remaining=%d requested=%d",
			targetResourceID, availability.Details.RemainingQuantity, targetQuantity)
		return nil, newCapacityError(availability, targetQuantity)
	}

	// 5. Записываем новую конфигурацию
	updated, err := uc.allocationRepo.Update(ctx, alloc.ID, targetResourceID, targetQuantity)
	if err != nil {
		uc.logger.Error("UpdateAllocation: failed to update allocation id=%d: %v", alloc.ID, err)
		return nil, fmt.Errorf("%w: failed to update allocation: %v", ErrInternal, err)
	}

	// 6. Журнал запаса: старое списание возвращается, новое фиксируется
	if err := uc.adjustStock(ctx, oldResource, targetResource, alloc, updated); err != nil {
		return nil, err
	}

	return &Response{
		ID:           updated.ID,
		ResourceID:   updated.ResourceID,
		EventID:      updated.EventID,
		Quantity:     updated.Quantity,
		Availability: availability,
		CreatedAt:    updated.CreatedAt,
		UpdatedAt:    updated.UpdatedAt,
	}, nil
}

// lockResources блокирует старый и целевой ресурсы в порядке возрастания ID
// При совпадении берется одна блокировка
func (uc *UseCase) lockResources(ctx context.Context, oldID, targetID int64) (oldRes, targetRes *domain.Resource, err error) {
	first, second := oldID, targetID
	if first > second {
		first, second = second, first
	}

	locked := make(map[int64]*domain.Resource, 2)
	for _, id := range []int64{first, second} {
		if _, ok := locked[id]; ok {
			continue
		}
		res, err := uc.resourceRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, resourceRepo.ErrResourceNotFound) {
				uc.logger.Warn("UpdateAllocation: resource id=%d not found", id)
				return nil, nil, ErrResourceNotFound
			}
			uc.logger.Error("UpdateAllocation: failed to get resource id=%d: %v", id, err)
			return nil, nil, fmt.Errorf("%w: failed to get resource: %v", ErrInternal, err)
		}
		locked[id] = res
	}

	return locked[oldID], locked[targetID], nil
}

// fetchCompeting собирает аллокации, против которых валидируется новая
// конфигурация: чужие события по семантике типа ресурса плюс остальные
// аллокации собственного события на целевом ресурсе
func (uc *UseCase) fetchCompeting(
	ctx context.Context,
	targetResource *domain.Resource,
	evt *domain.Event,
	current *domain.Allocation,
) ([]domain.AllocationWithWindow, error) {
	var (
		competing []domain.AllocationWithWindow
		err       error
	)

	if targetResource.Type == domain.TypeConsumable {
		competing, err = uc.allocationRepo.GetActiveByResource(ctx, targetResource.ID, &evt.ID)
	} else {
		competing, err = uc.allocationRepo.GetOverlapping(ctx, targetResource.ID, evt.StartTime, evt.EndTime, &evt.ID)
	}
	if err != nil {
		return nil, err
	}

	siblings, err := uc.allocationRepo.GetByEventID(ctx, evt.ID)
	if err != nil {
		return nil, err
	}
	for _, sib := range siblings {
		if sib.ID == current.ID || sib.ResourceID != targetResource.ID {
			continue
		}
		competing = append(competing, domain.AllocationWithWindow{
			Allocation: *sib,
			EventTitle: evt.Title,
			Window:     evt.Window(),
		})
	}

	return competing, nil
}

// adjustStock отражает изменение в журнале запаса расходуемых ресурсов:
// запись-возврат на старом ресурсе и запись-списание на целевом
func (uc *UseCase) adjustStock(ctx context.Context, oldRes, targetRes *domain.Resource, before, after *domain.Allocation) error {
	if oldRes.Type == domain.TypeConsumable {
		if err := uc.appendStock(ctx, oldRes.ID, before.EventID, before.Quantity, domain.StockRelease); err != nil {
			return err
		}
	}
	if targetRes.Type == domain.TypeConsumable {
		if err := uc.appendStock(ctx, targetRes.ID, after.EventID, -after.Quantity, domain.StockConsume); err != nil {
			return err
		}
	}
	return nil
}

func (uc *UseCase) appendStock(ctx context.Context, resourceID, eventID int64, delta int, kind domain.StockEntryKind) error {
	_, err := uc.stockLedger.Append(ctx, &domain.StockEntry{
		ResourceID: resourceID,
		EventID:    &eventID,
		Delta:      delta,
		Kind:       kind,
	})
	if err != nil {
		uc.logger.Error("UpdateAllocation: failed to append stock %s entry: %v", kind, err)
		return fmt.Errorf("%w: failed to append stock entry: %v", ErrInternal, err)
	}
	return nil
}

// inSerializable выполняет fn в сериализуемой транзакции, если txManager задан
func (uc *UseCase) inSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	if uc.txManager == nil {
		return fn(ctx)
	}
	return uc.txManager.DoSerializable(ctx, fn)
}

func ptrVal[T any](p *T) interface{} {
	if p == nil {
		return "<unchanged>"
	}
	return *p
}
