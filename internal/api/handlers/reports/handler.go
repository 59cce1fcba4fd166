package reports

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-ResourceService/internal/api/handlers"
	"github.com/m04kA/SMC-ResourceService/internal/service/reports"
)

const (
	msgInvalidOrgID     = "некорректный ID организации"
	msgInvalidThreshold = "некорректный порог, ожидается положительное число"
)

// Handler обслуживает все отчеты целостности: один сервис, общий маппинг
// ошибок, поэтому эндпоинты собраны в одном пакете
type Handler struct {
	service ReportService
	logger  Logger
}

func NewHandler(service ReportService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// HandleDoubleBookedUsers GET /api/v1/reports/double-booked-users
func (h *Handler) HandleDoubleBookedUsers(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.DoubleBookedUsers(r.Context())
	if err != nil {
		h.logger.Error("GET /reports/double-booked-users - Failed: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /reports/double-booked-users - Generated: rows=%d", len(resp.Rows))
	handlers.RespondJSON(w, http.StatusOK, resp)
}

// HandleViolatedConstraints GET /api/v1/reports/violated-constraints
func (h *Handler) HandleViolatedConstraints(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.ViolatedConstraints(r.Context())
	if err != nil {
		h.logger.Error("GET /reports/violated-constraints - Failed: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /reports/violated-constraints - Generated: rows=%d", len(resp.Rows))
	handlers.RespondJSON(w, http.StatusOK, resp)
}

// HandleParentChildViolations GET /api/v1/reports/parent-child-violations
func (h *Handler) HandleParentChildViolations(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.ParentChildViolations(r.Context())
	if err != nil {
		h.logger.Error("GET /reports/parent-child-violations - Failed: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /reports/parent-child-violations - Generated: rows=%d", len(resp.Rows))
	handlers.RespondJSON(w, http.StatusOK, resp)
}

// HandleResourceUtilization GET /api/v1/reports/resource-utilization
func (h *Handler) HandleResourceUtilization(w http.ResponseWriter, r *http.Request) {
	var organizationID *int64
	if raw := r.URL.Query().Get("organizationId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.logger.Warn("GET /reports/resource-utilization - Invalid organizationId: %v", err)
			handlers.RespondBadRequest(w, msgInvalidOrgID)
			return
		}
		organizationID = &id
	}

	resp, err := h.service.ResourceUtilization(r.Context(), organizationID)
	if err != nil {
		h.logger.Error("GET /reports/resource-utilization - Failed: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /reports/resource-utilization - Generated: rows=%d", len(resp.Rows))
	handlers.RespondJSON(w, http.StatusOK, resp)
}

// HandleExternalAttendees GET /api/v1/reports/external-attendees
func (h *Handler) HandleExternalAttendees(w http.ResponseWriter, r *http.Request) {
	var threshold *int
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			h.logger.Warn("GET /reports/external-attendees - Invalid threshold: %v", err)
			handlers.RespondBadRequest(w, msgInvalidThreshold)
			return
		}
		threshold = &value
	}

	resp, err := h.service.ExternalAttendees(r.Context(), threshold)
	if err != nil {
		switch {
		case errors.Is(err, reports.ErrInvalidInput):
			h.logger.Warn("GET /reports/external-attendees - Invalid threshold value")
			handlers.RespondBadRequest(w, msgInvalidThreshold)

		default:
			h.logger.Error("GET /reports/external-attendees - Failed: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /reports/external-attendees - Generated: rows=%d", len(resp.Rows))
	handlers.RespondJSON(w, http.StatusOK, resp)
}

// HandleSummary GET /api/v1/reports/integrity-summary
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Summary(r.Context())
	if err != nil {
		h.logger.Error("GET /reports/integrity-summary - Failed: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /reports/integrity-summary - Generated")
	handlers.RespondJSON(w, http.StatusOK, resp)
}
