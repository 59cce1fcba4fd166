package restock_resource

import (
	"context"

	"github.com/m04kA/SMC-ResourceService/internal/service/resources/models"
)

type ResourceService interface {
	Restock(ctx context.Context, req *models.RestockRequest) (*models.RestockResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
