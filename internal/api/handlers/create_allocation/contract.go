package create_allocation

import (
	"context"

	createAllocation "github.com/m04kA/SMC-ResourceService/internal/usecase/create_allocation"
)

type CreateAllocationUseCase interface {
	Execute(ctx context.Context, req *createAllocation.Request) (*createAllocation.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
