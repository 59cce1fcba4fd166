package allocations

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
	allocationRepo "github.com/m04kA/SMC-ResourceService/internal/infra/storage/allocation"
	"github.com/m04kA/SMC-ResourceService/internal/service/allocations/models"
)

// Service сервис для чтения и удаления аллокаций
// Создание и изменение живут в usecase-слое: там перевалидация мощности,
// здесь только операции без проверки доступности
type Service struct {
	allocationRepo AllocationRepository
	resourceRepo   ResourceRepository
	stockLedger    StockLedger
	txManager      TransactionManager
	logger         Logger
}

// NewService создает новый экземпляр сервиса аллокаций
func NewService(
	allocationRepo AllocationRepository,
	resourceRepo ResourceRepository,
	stockLedger StockLedger,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		allocationRepo: allocationRepo,
		resourceRepo:   resourceRepo,
		stockLedger:    stockLedger,
		txManager:      txManager,
		logger:         logger,
	}
}

// GetByID получает аллокацию по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*models.AllocationResponse, error) {
	s.logger.Info("GetByID: fetching allocation id=%d", id)

	alloc, err := s.allocationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, allocationRepo.ErrAllocationNotFound) {
			s.logger.Warn("GetByID: allocation id=%d not found", id)
			return nil, ErrAllocationNotFound
		}
		s.logger.Error("GetByID: repository error for allocation id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainAllocation(alloc), nil
}

// GetByEvent получает все аллокации события
func (s *Service) GetByEvent(ctx context.Context, eventID int64) (*models.AllocationListResponse, error) {
	s.logger.Info("GetByEvent: fetching allocations for event=%d", eventID)

	if eventID <= 0 {
		return nil, fmt.Errorf("%w: event_id must be positive", ErrInvalidInput)
	}

	allocs, err := s.allocationRepo.GetByEventID(ctx, eventID)
	if err != nil {
		s.logger.Error("GetByEvent: repository error for event=%d: %v", eventID, err)
		return nil, fmt.Errorf("%w: GetByEvent - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetByEvent: successfully fetched %d allocations for event=%d", len(allocs), eventID)
	return models.FromDomainAllocationList(allocs), nil
}

// Delete удаляет аллокацию и возвращает удержанную мощность
// Для расходуемого ресурса списание возвращается записью-возвратом в журнале
// запаса; простое окончание события запас НЕ возвращает
func (s *Service) Delete(ctx context.Context, id int64) error {
	s.logger.Info("Delete: deleting allocation id=%d", id)

	err := s.inSerializable(ctx, func(txCtx context.Context) error {
		alloc, err := s.allocationRepo.GetByID(txCtx, id)
		if err != nil {
			if errors.Is(err, allocationRepo.ErrAllocationNotFound) {
				s.logger.Warn("Delete: allocation id=%d not found", id)
				return ErrAllocationNotFound
			}
			s.logger.Error("Delete: repository error for allocation id=%d: %v", id, err)
			return fmt.Errorf("%w: Delete - repository error: %v", ErrInternal, err)
		}

		// Блокируем ресурс: удаление меняет его доступность
		resource, err := s.resourceRepo.GetByIDForUpdate(txCtx, alloc.ResourceID)
		if err != nil {
			s.logger.Error("Delete: failed to get resource id=%d: %v", alloc.ResourceID, err)
			return fmt.Errorf("%w: Delete - failed to get resource: %v", ErrInternal, err)
		}

		if err := s.allocationRepo.Delete(txCtx, id); err != nil {
			if errors.Is(err, allocationRepo.ErrAllocationNotFound) {
				return ErrAllocationNotFound
			}
			s.logger.Error("Delete: failed to delete allocation id=%d: %v", id, err)
			return fmt.Errorf("%w: Delete - failed to delete: %v", ErrInternal, err)
		}

		if resource.Type == domain.TypeConsumable {
			if err := s.appendRelease(txCtx, resource.ID, alloc.EventID, alloc.Quantity); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return err
	}

	s.logger.Info("Delete: successfully deleted allocation id=%d", id)
	return nil
}

// DeleteByEvent удаляет все аллокации события
// Используется при удалении события владельцем; возвращает число удаленных
func (s *Service) DeleteByEvent(ctx context.Context, eventID int64) (int64, error) {
	s.logger.Info("DeleteByEvent: deleting allocations for event=%d", eventID)

	if eventID <= 0 {
		return 0, fmt.Errorf("%w: event_id must be positive", ErrInvalidInput)
	}

	var deleted int64

	err := s.inSerializable(ctx, func(txCtx context.Context) error {
		allocs, err := s.allocationRepo.GetByEventID(txCtx, eventID)
		if err != nil {
			s.logger.Error("DeleteByEvent: repository error for event=%d: %v", eventID, err)
			return fmt.Errorf("%w: DeleteByEvent - repository error: %v", ErrInternal, err)
		}
		if len(allocs) == 0 {
			return nil
		}

		// Блокируем затронутые ресурсы в порядке возрастания ID
		resources, err := s.lockResources(txCtx, allocs)
		if err != nil {
			return err
		}

		deleted, err = s.allocationRepo.DeleteByEventID(txCtx, eventID)
		if err != nil {
			s.logger.Error("DeleteByEvent: failed to delete allocations for event=%d: %v", eventID, err)
			return fmt.Errorf("%w: DeleteByEvent - failed to delete: %v", ErrInternal, err)
		}

		for _, alloc := range allocs {
			if resources[alloc.ResourceID].Type != domain.TypeConsumable {
				continue
			}
			if err := s.appendRelease(txCtx, alloc.ResourceID, eventID, alloc.Quantity); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return 0, err
	}

	s.logger.Info("DeleteByEvent: successfully deleted %d allocations for event=%d", deleted, eventID)
	return deleted, nil
}

// lockResources блокирует ресурсы всех аллокаций в порядке возрастания ID
func (s *Service) lockResources(ctx context.Context, allocs []*domain.Allocation) (map[int64]*domain.Resource, error) {
	ids := make([]int64, 0, len(allocs))
	seen := make(map[int64]struct{}, len(allocs))
	for _, a := range allocs {
		if _, ok := seen[a.ResourceID]; ok {
			continue
		}
		seen[a.ResourceID] = struct{}{}
		ids = append(ids, a.ResourceID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	resources := make(map[int64]*domain.Resource, len(ids))
	for _, id := range ids {
		res, err := s.resourceRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			s.logger.Error("DeleteByEvent: failed to get resource id=%d: %v", id, err)
			return nil, fmt.Errorf("%w: failed to get resource: %v", ErrInternal, err)
		}
		resources[id] = res
	}

	return resources, nil
}

// appendRelease добавляет запись-возврат в журнал запаса
func (s *Service) appendRelease(ctx context.Context, resourceID, eventID int64, quantity int) error {
	_, err := s.stockLedger.Append(ctx, &domain.StockEntry{
		ResourceID: resourceID,
		EventID:    &eventID,
		Delta:      quantity,
		Kind:       domain.StockRelease,
	})
	if err != nil {
		s.logger.Error("appendRelease: failed to append stock release entry: %v", err)
		return fmt.Errorf("%w: failed to append stock entry: %v", ErrInternal, err)
	}
	return nil
}

// inSerializable выполняет fn в сериализуемой транзакции, если txManager задан
func (s *Service) inSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.txManager == nil {
		return fn(ctx)
	}
	return s.txManager.DoSerializable(ctx, fn)
}
