package get_allocation

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ResourceService/internal/api/handlers"
	"github.com/m04kA/SMC-ResourceService/internal/service/allocations"
)

const (
	msgInvalidAllocationID = "некорректный ID аллокации"
	msgAllocationNotFound  = "аллокация не найдена"
)

type Handler struct {
	service AllocationService
	logger  Logger
}

func NewHandler(service AllocationService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/allocations/{allocationId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	allocationID, err := strconv.ParseInt(vars["allocationId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /allocations/{id} - Invalid allocation ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAllocationID)
		return
	}

	resp, err := h.service.GetByID(r.Context(), allocationID)
	if err != nil {
		switch {
		case errors.Is(err, allocations.ErrAllocationNotFound):
			h.logger.Warn("GET /allocations/{id} - Allocation not found: allocation_id=%d", allocationID)
			handlers.RespondNotFound(w, msgAllocationNotFound)

		default:
			h.logger.Error("GET /allocations/{id} - Failed: allocation_id=%d, error=%v", allocationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /allocations/{id} - Retrieved: allocation_id=%d", allocationID)
	handlers.RespondJSON(w, http.StatusOK, resp)
}
