package get_resource

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ResourceService/internal/api/handlers"
	"github.com/m04kA/SMC-ResourceService/internal/service/resources"
)

const (
	msgInvalidResourceID = "некорректный ID ресурса"
	msgInvalidOrgID      = "некорректный ID организации"
	msgResourceNotFound  = "ресурс не найден"
)

type Handler struct {
	service ResourceService
	logger  Logger
}

func NewHandler(service ResourceService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/resources/{resourceId}
// Невидимый организации ресурс неотличим от несуществующего
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	resourceID, err := strconv.ParseInt(vars["resourceId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /resources/{id} - Invalid resource ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidResourceID)
		return
	}

	var organizationID *int64
	if raw := r.URL.Query().Get("organizationId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.logger.Warn("GET /resources/{id} - Invalid organizationId: %v", err)
			handlers.RespondBadRequest(w, msgInvalidOrgID)
			return
		}
		organizationID = &id
	}

	resp, err := h.service.GetByID(r.Context(), resourceID, organizationID)
	if err != nil {
		switch {
		case errors.Is(err, resources.ErrResourceNotFound):
			h.logger.Warn("GET /resources/{id} - Resource not found: resource_id=%d", resourceID)
			handlers.RespondNotFound(w, msgResourceNotFound)

		default:
			h.logger.Error("GET /resources/{id} - Failed: resource_id=%d, error=%v", resourceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /resources/{id} - Retrieved: resource_id=%d", resourceID)
	handlers.RespondJSON(w, http.StatusOK, resp)
}
