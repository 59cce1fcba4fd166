package get_event_allocations

import (
	"context"

	"github.com/m04kA/SMC-ResourceService/internal/service/allocations/models"
)

type AllocationService interface {
	GetByEvent(ctx context.Context, eventID int64) (*models.AllocationListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
