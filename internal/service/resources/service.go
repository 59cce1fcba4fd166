package resources

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
	resourceRepo "github.com/m04kA/SMC-ResourceService/internal/infra/storage/resource"
	"github.com/m04kA/SMC-ResourceService/internal/service/resources/models"
)

// Service сервис каталога ресурсов
type Service struct {
	resourceRepo ResourceRepository
	stockLedger  StockLedger
	txManager    TransactionManager
	logger       Logger
}

// NewService создает новый экземпляр сервиса ресурсов
func NewService(
	resourceRepo ResourceRepository,
	stockLedger StockLedger,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		resourceRepo: resourceRepo,
		stockLedger:  stockLedger,
		txManager:    txManager,
		logger:       logger,
	}
}

// GetByID получает карточку ресурса с проверкой зоны видимости
// Ресурс вне зоны видимости организации неотличим от отсутствующего
func (s *Service) GetByID(ctx context.Context, id int64, organizationID *int64) (*models.ResourceResponse, error) {
	s.logger.Info("GetByID: fetching resource id=%d for org=%v", id, organizationID)

	res, err := s.resourceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, resourceRepo.ErrResourceNotFound) {
			s.logger.Warn("GetByID: resource id=%d not found", id)
			return nil, ErrResourceNotFound
		}
		s.logger.Error("GetByID: repository error for resource id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	if !res.VisibleTo(organizationID) {
		s.logger.Warn("GetByID: resource id=%d not visible to org=%v", id, organizationID)
		return nil, ErrResourceNotFound
	}

	return models.FromDomainResource(res), nil
}

// List получает ресурсы, видимые организации
func (s *Service) List(ctx context.Context, organizationID *int64) (*models.ResourceListResponse, error) {
	s.logger.Info("List: fetching resources for org=%v", organizationID)

	resources, err := s.resourceRepo.List(ctx, organizationID)
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("List: successfully fetched %d resources", len(resources))
	return models.FromDomainResourceList(resources), nil
}

// LedgerHistory возвращает историю журнала запаса расходуемого ресурса
// вместе с балансом (суммой дельт). Журнал есть только у расходуемых ресурсов
func (s *Service) LedgerHistory(ctx context.Context, resourceID int64) (*models.StockLedgerResponse, error) {
	s.logger.Info("LedgerHistory: fetching stock ledger for resource=%d", resourceID)

	res, err := s.resourceRepo.GetByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, resourceRepo.ErrResourceNotFound) {
			s.logger.Warn("LedgerHistory: resource id=%d not found", resourceID)
			return nil, ErrResourceNotFound
		}
		s.logger.Error("LedgerHistory: repository error for resource id=%d: %v", resourceID, err)
		return nil, fmt.Errorf("%w: LedgerHistory - repository error: %v", ErrInternal, err)
	}

	if res.Type != domain.TypeConsumable {
		s.logger.Warn("LedgerHistory: resource id=%d has type=%s, ledger applies to consumables only", res.ID, res.Type)
		return nil, ErrNotConsumable
	}

	entries, err := s.stockLedger.ListByResource(ctx, resourceID)
	if err != nil {
		s.logger.Error("LedgerHistory: failed to list stock entries for resource id=%d: %v", resourceID, err)
		return nil, fmt.Errorf("%w: LedgerHistory - failed to list stock entries: %v", ErrInternal, err)
	}

	return models.FromDomainStockEntries(resourceID, entries), nil
}

// Restock пополняет запас расходуемого ресурса: запись в журнале запаса
// и новое значение total_quantity фиксируются одной транзакцией
func (s *Service) Restock(ctx context.Context, req *models.RestockRequest) (*models.RestockResponse, error) {
	s.logger.Info("Restock: resource=%d, quantity=%d", req.ResourceID, req.Quantity)

	if req.ResourceID <= 0 {
		return nil, fmt.Errorf("%w: resource_id must be positive", ErrInvalidInput)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}

	var result *models.RestockResponse

	err := s.inSerializable(ctx, func(txCtx context.Context) error {
		res, err := s.resourceRepo.GetByIDForUpdate(txCtx, req.ResourceID)
		if err != nil {
			if errors.Is(err, resourceRepo.ErrResourceNotFound) {
				s.logger.Warn("Restock: resource id=%d not found", req.ResourceID)
				return ErrResourceNotFound
			}
			s.logger.Error("Restock: repository error for resource id=%d: %v", req.ResourceID, err)
			return fmt.Errorf("%w: Restock - repository error: %v", ErrInternal, err)
		}

		if res.Type != domain.TypeConsumable {
			s.logger.Warn("Restock: resource id=%d has type=%s, restock applies to consumables only", res.ID, res.Type)
			return ErrNotConsumable
		}

		entry, err := s.stockLedger.Append(txCtx, &domain.StockEntry{
			ResourceID: res.ID,
			Delta:      req.Quantity,
			Kind:       domain.StockRestock,
			Note:       req.Note,
		})
		if err != nil {
			s.logger.Error("Restock: failed to append stock entry: %v", err)
			return fmt.Errorf("%w: Restock - failed to append stock entry: %v", ErrInternal, err)
		}

		newTotal := res.TotalQuantity + req.Quantity
		if err := s.resourceRepo.UpdateTotalQuantity(txCtx, res.ID, newTotal); err != nil {
			s.logger.Error("Restock: failed to update total quantity for resource id=%d: %v", res.ID, err)
			return fmt.Errorf("%w: Restock - failed to update total quantity: %v", ErrInternal, err)
		}

		balance, err := s.stockLedger.BalanceAt(txCtx, res.ID, entry.RecordedAt)
		if err != nil {
			s.logger.Error("Restock: failed to get ledger balance for resource id=%d: %v", res.ID, err)
			return fmt.Errorf("%w: Restock - failed to get ledger balance: %v", ErrInternal, err)
		}

		result = &models.RestockResponse{
			ResourceID:    res.ID,
			TotalQuantity: newTotal,
			LedgerEntryID: entry.ID,
			LedgerBalance: balance,
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Restock: resource id=%d total quantity raised to %d", result.ResourceID, result.TotalQuantity)
	return result, nil
}

// inSerializable выполняет fn в сериализуемой транзакции, если txManager задан
func (s *Service) inSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.txManager == nil {
		return fn(ctx)
	}
	return s.txManager.DoSerializable(ctx, fn)
}
