package resources

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
)

// ResourceRepository интерфейс репозитория ресурсов
type ResourceRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Resource, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Resource, error)
	List(ctx context.Context, organizationID *int64) ([]*domain.Resource, error)
	UpdateTotalQuantity(ctx context.Context, id int64, totalQuantity int) error
}

// StockLedger интерфейс append-only журнала запаса расходуемых ресурсов
type StockLedger interface {
	Append(ctx context.Context, entry *domain.StockEntry) (*domain.StockEntry, error)
	BalanceAt(ctx context.Context, resourceID int64, at time.Time) (int, error)
	ListByResource(ctx context.Context, resourceID int64) ([]domain.StockEntry, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
