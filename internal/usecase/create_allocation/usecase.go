package create_allocation

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
	eventRepo "github.com/m04kA/SMC-ResourceService/internal/infra/storage/event"
	resourceRepo "github.com/m04kA/SMC-ResourceService/internal/infra/storage/resource"
	"github.com/m04kA/SMC-ResourceService/pkg/ptr"
)

// UseCase use case создания аллокаций
//
// Критическая секция §: проверка мощности и запись аллокации выполняются
// как одна сериализуемая единица по ресурсу. Иначе два одновременных
// бронирования могут оба прочитать "мощность есть" до того, как кто-то
// из них запишет, и оба пройти (lost update)
type UseCase struct {
	resourceRepo   ResourceRepository
	allocationRepo AllocationRepository
	eventRepo      EventRepository
	stockLedger    StockLedger
	txManager      TransactionManager
	logger         Logger
}

// NewUseCase создает новый экземпляр use case
// txManager может быть nil - тогда workflow создания события с аллокациями
// использует компенсацию вместо нативной транзакции (для хранилищ без
// multi-statement транзакций)
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

// Execute создает аллокацию для существующего события
// Проверка доступности повторяется внутри сериализуемой транзакции
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateAllocation: resource=%d, event=%d, quantity=%d",
		req.ResourceID, req.EventID, req.Quantity)

	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateAllocation: validation failed: %v", err)
		return nil, err
	}

	var result *Response

	err := uc.inSerializable(ctx, func(txCtx context.Context) error {
		created, err := uc.allocateLocked(txCtx, req.ResourceID, req.EventID, req.Quantity)
		if err != nil {
			return err
		}
		result = created
		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("CreateAllocation: successfully created allocation id=%d", result.ID)
	return result, nil
}

// ExecuteWithEvent создает событие вместе с его аллокациями (всё или ничего)
//
// Основной путь - одна нативная сериализуемая транзакция: провал любой
// аллокации откатывает и событие. Компенсационный путь (без txManager)
// удаляет уже созданное событие вручную - best effort
func (uc *UseCase) ExecuteWithEvent(ctx context.Context, req *WithEventRequest) (*WithEventResponse, error) {
	uc.logger.Info("CreateAllocationWithEvent: title=%q, window=[%s, %s), allocations=%d",
		req.Event.Title, req.Event.StartTime.Format(timeFormat), req.Event.EndTime.Format(timeFormat), len(req.Allocations))

	if err := validateWithEventRequest(req); err != nil {
		uc.logger.Warn("CreateAllocationWithEvent: validation failed: %v", err)
		return nil, err
	}

	if uc.txManager == nil {
		return uc.executeWithEventCompensating(ctx, req)
	}

	var result *WithEventResponse

	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		created, err := uc.createEventWithAllocations(txCtx, req)
		if err != nil {
			return err
		}
		result = created
		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("CreateAllocationWithEvent: successfully created event id=%d with %d allocations",
		result.EventID, len(result.Allocations))
	return result, nil
}

// executeWithEventCompensating компенсационный путь для хранилищ без
// multi-statement транзакций: событие создается отдельно, при провале
// аллокаций удаляется best effort, вызывающему возвращается исходная
// ошибка валидации
func (uc *UseCase) executeWithEventCompensating(ctx context.Context, req *WithEventRequest) (*WithEventResponse, error) {
	created, err := uc.createEventWithAllocations(ctx, req)
	if err == nil {
		uc.logger.Info("CreateAllocationWithEvent: successfully created event id=%d with %d allocations (compensating path)",
			created.EventID, len(created.Allocations))
		return created, nil
	}

	// Событие могло успеть создаться до провала аллокаций
	if evtID := orphanedEventID(err); evtID != nil {
		if delErr := uc.eventRepo.Delete(ctx, *evtID); delErr != nil {
			// Ошибка компенсации логируется, но не поднимается: исходная
			// ошибка информативнее для вызывающего
			uc.logger.Error("CreateAllocationWithEvent: %v: event id=%d: %v", ErrCompensationFailed, *evtID, delErr)
		} else {
			uc.logger.Info("CreateAllocationWithEvent: compensated - deleted orphaned event id=%d", *evtID)
		}
		err = errors.Unwrap(unwrapOrphan(err))
	}

	return nil, err
}

// createEventWithAllocations создает событие и последовательно аллоцирует ресурсы
// При провале аллокации возвращает ошибку, обернутую в orphanError с ID события
func (uc *UseCase) createEventWithAllocations(ctx context.Context, req *WithEventRequest) (*WithEventResponse, error) {
	evt, err := uc.eventRepo.Create(ctx, &domain.Event{
		Title:          req.Event.Title,
		StartTime:      req.Event.StartTime,
		EndTime:        req.Event.EndTime,
		Status:         domain.EventStatusPublished,
		OrganizationID: req.Event.OrganizationID,
		ParentEventID:  req.Event.ParentEventID,
	})
	if err != nil {
		uc.logger.Error("CreateAllocationWithEvent: failed to create event: %v", err)
		return nil, fmt.Errorf("%w: failed to create event: %v", ErrInternal, err)
	}

	allocations := make([]Response, 0, len(req.Allocations))
	for _, spec := range req.Allocations {
		created, err := uc.allocateLocked(ctx, spec.ResourceID, evt.ID, spec.Quantity)
		if err != nil {
			return nil, &orphanError{eventID: evt.ID, err: err}
		}
		allocations = append(allocations, *created)
	}

	return &WithEventResponse{
		EventID:     evt.ID,
		Allocations: allocations,
	}, nil
}

// allocateLocked проверяет доступность и создает аллокацию под блокировкой ресурса
// Должен вызываться внутри транзакции (или на компенсационном пути - без неё)
func (uc *UseCase) allocateLocked(ctx context.Context, resourceID, eventID int64, quantity int) (*Response, error) {
	// 1. Блокируем строку ресурса - мутации по одному ресурсу сериализуются здесь
	resource, err := uc.resourceRepo.GetByIDForUpdate(ctx, resourceID)
	if err != nil {
		if errors.Is(err, resourceRepo.ErrResourceNotFound) {
			uc.logger.Warn("CreateAllocation: resource id=%d not found", resourceID)
			return nil, ErrResourceNotFound
		}
		uc.logger.Error("CreateAllocation: failed to get resource id=%d: %v", resourceID, err)
		return nil, fmt.Errorf("%w: failed to get resource: %v", ErrInternal, err)
	}

	// 2. Проверяем событие
	evt, err := uc.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, eventRepo.ErrEventNotFound) {
			uc.logger.Warn("CreateAllocation: event id=%d not found", eventID)
			return nil, ErrEventNotFound
		}
		uc.logger.Error("CreateAllocation: failed to get event id=%d: %v", eventID, err)
		return nil, fmt.Errorf("%w: failed to get event: %v", ErrInternal, err)
	}

	if evt.IsCancelled() {
		uc.logger.Warn("CreateAllocation: event id=%d is cancelled", eventID)
		return nil, ErrEventCancelled
	}

	// 3. Повторяем проверку доступности в том же атомарном скоупе, что и запись
	competing, err := uc.fetchCompeting(ctx, resource, evt, nil)
	if err != nil {
		uc.logger.Error("CreateAllocation: failed to get allocations for resource id=%d: %v", resourceID, err)
		return nil, fmt.Errorf("%w: failed to get allocations: %v", ErrInternal, err)
	}

	availability := domain.CheckCapacityForEvent(resource, quantity, competing, evt.ID)
	if !availability.Available {
		uc.logger.Warn("CreateAllocation: capacity check failed for resource id=%d: remaining=%d requested=%d",
			resourceID, availability.Details.RemainingQuantity, quantity)
		return nil, newCapacityError(availability, quantity)
	}

	// 4. Создаем аллокацию
	created, err := uc.allocationRepo.Create(ctx, &domain.Allocation{
		ResourceID: resourceID,
		EventID:    eventID,
		Quantity:   quantity,
	})
	if err != nil {
		uc.logger.Error("CreateAllocation: failed to create allocation: %v", err)
		return nil, fmt.Errorf("%w: failed to create allocation: %v", ErrInternal, err)
	}

	// 5. Для расходуемого ресурса фиксируем списание в журнале запаса
	if resource.Type == domain.TypeConsumable {
		if err := uc.appendStockConsume(ctx, created); err != nil {
			return nil, err
		}
	}

	return ptr.Ptr(fromDomainAllocation(created, availability)), nil
}

// fetchCompeting выбирает конкурирующие аллокации согласно семантике типа ресурса
func (uc *UseCase) fetchCompeting(ctx context.Context, resource *domain.Resource, evt *domain.Event, excludeEventID *int64) ([]domain.AllocationWithWindow, error) {
	if resource.Type == domain.TypeConsumable {
		return uc.allocationRepo.GetActiveByResource(ctx, resource.ID, excludeEventID)
	}
	return uc.allocationRepo.GetOverlapping(ctx, resource.ID, evt.StartTime, evt.EndTime, excludeEventID)
}

// appendStockConsume добавляет запись о списании в журнал запаса
func (uc *UseCase) appendStockConsume(ctx context.Context, alloc *domain.Allocation) error {
	_, err := uc.stockLedger.Append(ctx, &domain.StockEntry{
		ResourceID: alloc.ResourceID,
		EventID:    &alloc.EventID,
		Delta:      -alloc.Quantity,
		Kind:       domain.StockConsume,
	})
	if err != nil {
		uc.logger.Error("CreateAllocation: failed to append stock consume entry: %v", err)
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

// orphanError помечает ошибку аллокации ID уже созданного события,
// чтобы компенсационный путь знал, что удалять
type orphanError struct {
	eventID int64
	err     error
}

func (e *orphanError) Error() string {
	return e.err.Error()
}

func (e *orphanError) Unwrap() error {
	return e.err
}

func orphanedEventID(err error) *int64 {
	var oe *orphanError
	if errors.As(err, &oe) {
		return &oe.eventID
	}
	return nil
}

func unwrapOrphan(err error) error {
	var oe *orphanError
	if errors.As(err, &oe) {
		return oe
	}
	return err
}

const timeFormat = "2006-01-02T15:04:05Z07:00"
