package reports

import (
	"context"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
	eventRepo "github.com/m04kA/SMC-ResourceService/internal/infra/storage/event"
)

// AllocationRepository интерфейс репозитория аллокаций
type AllocationRepository interface {
	GetAllWithWindows(ctx context.Context) ([]domain.AllocationWithWindow, error)
}

// ResourceRepository интерфейс репозитория ресурсов
type ResourceRepository interface {
	List(ctx context.Context, organizationID *int64) ([]*domain.Resource, error)
}

// EventRepository интерфейс репозитория событий
type EventRepository interface {
	GetParentChildPairs(ctx context.Context) ([]eventRepo.ParentChildPair, error)
	GetOrganizationIDByEvent(ctx context.Context, eventID int64) (*int64, error)
}

// AttendanceRepository интерфейс read-only репозитория регистраций
type AttendanceRepository interface {
	GetRegisteredWithWindows(ctx context.Context) ([]domain.AttendanceWithWindow, error)
	GetExternalAttendeeEvents(ctx context.Context, threshold int) ([]domain.ExternalAttendeeEvent, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
