package create_event_allocations

import (
	"context"

	createAllocation "github.com/m04kA/SMC-ResourceService/internal/usecase/create_allocation"
)

type CreateEventWithAllocationsUseCase interface {
	ExecuteWithEvent(ctx context.Context, req *createAllocation.WithEventRequest) (*createAllocation.WithEventResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
