package restock_resource

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ResourceService/internal/api/handlers"
	"github.com/m04kA/SMC-ResourceService/internal/service/resources"
	"github.com/m04kA/SMC-ResourceService/internal/service/resources/models"
	"github.com/m04kA/SMC-ResourceService/pkg/txmanager"
)

const (
	msgInvalidResourceID     = "некорректный ID ресурса"
	msgInvalidRequestBody    = "некорректное тело запроса"
	msgInvalidInput          = "количество пополнения должно быть положительным"
	msgResourceNotFound      = "ресурс не найден"
	msgNotConsumable         = "пополнение доступно только для расходуемых ресурсов"
	msgSerializationConflict = "конфликт одновременных операций, повторите запрос"
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

// Handle POST /api/v1/resources/{resourceId}/restock
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	resourceID, err := strconv.ParseInt(vars["resourceId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /resources/{id}/restock - Invalid resource ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidResourceID)
		return
	}

	var req RestockRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /resources/{id}/restock - Invalid request body: resource_id=%d, error=%v",
			resourceID, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	resp, err := h.service.Restock(r.Context(), &models.RestockRequest{
		ResourceID: resourceID,
		Quantity:   req.Quantity,
		Note:       req.Note,
	})
	if err != nil {
		switch {
		case errors.Is(err, resources.ErrInvalidInput):
			h.logger.Warn("POST /resources/{id}/restock - Invalid input: resource_id=%d, quantity=%d",
				resourceID, req.Quantity)
			handlers.RespondUnprocessable(w, msgInvalidInput)

		case errors.Is(err, resources.ErrResourceNotFound):
			h.logger.Warn("POST /resources/{id}/restock - Resource not found: resource_id=%d", resourceID)
			handlers.RespondNotFound(w, msgResourceNotFound)

		case errors.Is(err, resources.ErrNotConsumable):
			h.logger.Warn("POST /resources/{id}/restock - Not consumable: resource_id=%d", resourceID)
			handlers.RespondError(w, http.StatusConflict, msgNotConsumable)

		case errors.Is(err, txmanager.ErrSerializationFailure):
			h.logger.Warn("POST /resources/{id}/restock - Serialization conflict: resource_id=%d", resourceID)
			handlers.RespondError(w, http.StatusConflict, msgSerializationConflict)

		default:
			h.logger.Error("POST /resources/{id}/restock - Failed: resource_id=%d, error=%v", resourceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /resources/{id}/restock - Restocked: resource_id=%d, quantity=%d, total=%d",
		resourceID, req.Quantity, resp.TotalQuantity)
	handlers.RespondJSON(w, http.StatusOK, resp)
}
