package get_stock_ledger

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
	msgResourceNotFound  = "ресурс не найден"
	msgNotConsumable     = "журнал запаса ведется только для расходуемых ресурсов"
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

// Handle GET /api/v1/resources/{resourceId}/stock-ledger
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	resourceID, err := strconv.ParseInt(vars["resourceId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /resources/{id}/stock-ledger - Invalid resource ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidResourceID)
		return
	}

	resp, err := h.service.LedgerHistory(r.Context(), resourceID)
	if err != nil {
		switch {
		case errors.Is(err, resources.ErrResourceNotFound):
			h.logger.Warn("GET /resources/{id}/stock-ledger - Resource not found: resource_id=%d", resourceID)
			handlers.RespondNotFound(w, msgResourceNotFound)

		case errors.Is(err, resources.ErrNotConsumable):
			h.logger.Warn("GET /resources/{id}/stock-ledger - Not consumable: resource_id=%d", resourceID)
			handlers.RespondError(w, http.StatusConflict, msgNotConsumable)

		default:
			h.logger.Error("GET /resources/{id}/stock-ledger - Failed: resource_id=%d, error=%v", resourceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /resources/{id}/stock-ledger - Retrieved: resource_id=%d, entries=%d",
		resourceID, len(resp.Entries))
	handlers.RespondJSON(w, http.StatusOK, resp)
}
