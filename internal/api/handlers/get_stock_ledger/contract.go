package get_stock_ledger

import (
	"context"

	"github.com/m04kA/SMC-ResourceService/internal/service/resources/models"
)

type ResourceService interface {
	LedgerHistory(ctx context.Context, resourceID int64) (*models.StockLedgerResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
