package check_availability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ResourceService/internal/api/handlers"
	"github.com/m04kA/SMC-ResourceService/internal/domain"
	checkAvailability "github.com/m04kA/SMC-ResourceService/internal/usecase/check_availability"
)

const (
	msgInvalidResourceID = "некорректный ID ресурса"
	msgInvalidTime       = "некорректный формат времени, ожидается RFC3339"
	msgInvalidQuantity   = "некорректное запрошенное количество"
	msgInvalidEventID    = "некорректный ID исключаемого события"
	msgInvalidOrgID      = "некорректный ID организации"
	msgInvalidWindow     = "начало окна должно быть раньше конца"
	msgResourceNotFound  = "ресурс не найден"
)

type Handler struct {
	useCase CheckAvailabilityUseCase
	logger  Logger
}

func NewHandler(useCase CheckAvailabilityUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/resources/{resourceId}/availability
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	resourceID, err := strconv.ParseInt(vars["resourceId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /resources/{id}/availability - Invalid resource ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidResourceID)
		return
	}

	query := r.URL.Query()

	startTime, err := time.Parse(time.RFC3339, query.Get("startTime"))
	if err != nil {
		h.logger.Warn("GET /resources/{id}/availability - Invalid startTime: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTime)
		return
	}
	endTime, err := time.Parse(time.RFC3339, query.Get("endTime"))
	if err != nil {
		h.logger.Warn("GET /resources/{id}/availability - Invalid endTime: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTime)
		return
	}

	// Количество по умолчанию 1
	requestedQuantity := 1
	if raw := query.Get("requestedQuantity"); raw != "" {
		requestedQuantity, err = strconv.Atoi(raw)
		if err != nil {
			h.logger.Warn("GET /resources/{id}/availability - Invalid requestedQuantity: %v", err)
			handlers.RespondBadRequest(w, msgInvalidQuantity)
			return
		}
	}

	var excludeEventID *int64
	if raw := query.Get("excludeEventId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.logger.Warn("GET /resources/{id}/availability - Invalid excludeEventId: %v", err)
			handlers.RespondBadRequest(w, msgInvalidEventID)
			return
		}
		excludeEventID = &id
	}

	var organizationID *int64
	if raw := query.Get("organizationId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.logger.Warn("GET /resources/{id}/availability - Invalid organizationId: %v", err)
			handlers.RespondBadRequest(w, msgInvalidOrgID)
			return
		}
		organizationID = &id
	}

	result, err := h.useCase.Execute(r.Context(), &checkAvailability.Request{
		ResourceID:        resourceID,
		Window:            domain.TimeWindow{Start: startTime, End: endTime},
		RequestedQuantity: requestedQuantity,
		ExcludeEventID:    excludeEventID,
		OrganizationID:    organizationID,
	})
	if err != nil {
		switch {
		case errors.Is(err, checkAvailability.ErrResourceNotFound):
			h.logger.Warn("GET /resources/{id}/availability - Resource not found: resource_id=%d", resourceID)
			handlers.RespondNotFound(w, msgResourceNotFound)

		case errors.Is(err, checkAvailability.ErrInvalidWindow):
			h.logger.Warn("GET /resources/{id}/availability - Invalid window: resource_id=%d", resourceID)
			handlers.RespondBadRequest(w, msgInvalidWindow)

		case errors.Is(err, checkAvailability.ErrInvalidQuantity):
			h.logger.Warn("GET /resources/{id}/availability - Invalid quantity: resource_id=%d", resourceID)
			handlers.RespondBadRequest(w, msgInvalidQuantity)

		default:
			h.logger.Error("GET /resources/{id}/availability - Failed: resource_id=%d, error=%v", resourceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /resources/{id}/availability - Checked: resource_id=%d, available=%t",
		resourceID, result.Result.Available)
	handlers.RespondJSON(w, http.StatusOK, handlers.FromDomainAvailability(result.Result))
}
