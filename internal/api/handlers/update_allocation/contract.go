package update_allocation

import (
	"context"

	updateAllocation "github.com/m04kA/SMC-ResourceService/internal/usecase/update_allocation"
)

type UpdateAllocationUseCase interface {
	Execute(ctx context.Context, req *updateAllocation.Request) (*updateAllocation.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
