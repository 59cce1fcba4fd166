package allocations

import (
	"context"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
)

// AllocationRepository интерфейс репозитория аллокаций
type AllocationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Allocation, error)
	GetByEventID(ctx context.Context, eventID int64) ([]*domain.Allocation, error)
	Delete(ctx context.Context, id int64) error
	DeleteByEventID(ctx context.Context, eventID int64) (int64, error)
}

// ResourceRepository интерфейс репозитория ресурсов
type ResourceRepository interface {
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Resource, error)
}

// StockLedger интерфейс append-only журнала запаса расходуемых ресурсов
type StockLedger interface {
	Append(ctx context.Context, entry *domain.StockEntry) (*domain.StockEntry, error)
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
