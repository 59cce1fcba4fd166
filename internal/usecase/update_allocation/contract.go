package update_allocation

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
)

// ResourceRepository интерфейс репозитория ресурсов
type ResourceRepository interface {
	// GetByIDForUpdate блокирует строку ресурса - точка сериализации мутаций
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Resource, error)
}

// AllocationRepository интерфейс репозитория аллокаций
type AllocationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Allocation, error)
	GetByEventID(ctx context.Context, eventID int64) ([]*domain.Allocation, error)
	GetOverlapping(ctx context.Context, resourceID int64, from, to time.Time, excludeEventID *int64) ([]domain.AllocationWithWindow, error)
	GetActiveByResource(ctx context.Context, resourceID int64, excludeEventID *int64) ([]domain.AllocationWithWindow, error)
	Update(ctx context.Context, id int64, resourceID int64, quantity int) (*domain.Allocation, error)
}

// EventRepository интерфейс репозитория событий
type EventRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Event, error)
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
