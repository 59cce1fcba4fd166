package reports

import (
	"context"

	"github.com/m04kA/SMC-ResourceService/internal/service/reports/models"
)

type ReportService interface {
	DoubleBookedUsers(ctx context.Context) (*models.DoubleBookedUsersResponse, error)
	ViolatedConstraints(ctx context.Context) (*models.ViolatedConstraintsResponse, error)
	ParentChildViolations(ctx context.Context) (*models.HierarchyViolationsResponse, error)
	ResourceUtilization(ctx context.Context, organizationID *int64) (*models.ResourceUtilizationResponse, error)
	ExternalAttendees(ctx context.Context, threshold *int) (*models.ExternalAttendeesResponse, error)
	Summary(ctx context.Context) (*models.SummaryResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
