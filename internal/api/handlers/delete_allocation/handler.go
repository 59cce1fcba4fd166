package delete_allocation

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ResourceService/internal/api/handlers"
	"github.com/m04kA/SMC-ResourceService/internal/service/allocations"
	"github.com/m04kA/SMC-ResourceService/pkg/txmanager"
)

const (
	msgInvalidAllocationID   = "некорректный ID аллокации"
	msgAllocationNotFound    = "аллокация не найдена"
	msgSerializationConflict = "конфликт одновременных операций, повторите запрос"
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

// Handle DELETE /api/v1/allocations/{allocationId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	allocationID, err := strconv.ParseInt(vars["allocationId"], 10, 64)
	if err != nil {
		h.logger.Warn("DELETE /allocations/{id} - Invalid allocation ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAllocationID)
		return
	}

	if err := h.service.Delete(r.Context(), allocationID); err != nil {
		switch {
		case errors.Is(err, allocations.ErrAllocationNotFound):
			h.logger.Warn("DELETE /allocations/{id} - Allocation not found: allocation_id=%d", allocationID)
			handlers.RespondNotFound(w, msgAllocationNotFound)

		case errors.Is(err, txmanager.ErrSerializationFailure):
			h.logger.Warn("DELETE /allocations/{id} - Serialization conflict: allocation_id=%d", allocationID)
			handlers.RespondError(w, http.StatusConflict, msgSerializationConflict)

		default:
			h.logger.Error("DELETE /allocations/{id} - Failed: allocation_id=%d, error=%v", allocationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /allocations/{id} - Deleted: allocation_id=%d", allocationID)
	w.WriteHeader(http.StatusNoContent)
}
