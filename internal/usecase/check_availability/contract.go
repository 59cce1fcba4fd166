package check_availability

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
)

// ResourceRepository интерфейс репозитория ресурсов
type ResourceRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Resource, error)
}

// AllocationRepository интерфейс репозитория аллокаций
type AllocationRepository interface {
	GetOverlapping(ctx context.Context, resourceID int64, from, to time.Time, excludeEventID *int64) ([]domain.AllocationWithWindow, error)
	GetActiveByResource(ctx context.Context, resourceID int64, excludeEventID *int64) ([]domain.AllocationWithWindow, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
