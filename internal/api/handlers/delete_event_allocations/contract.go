package delete_event_allocations

import "context"

type AllocationService interface {
	DeleteByEvent(ctx context.Context, eventID int64) (int64, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
