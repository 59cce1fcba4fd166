package create_allocation

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ResourceService/internal/api/handlers"
	createAllocation "github.com/m04kA/SMC-ResourceService/internal/usecase/create_allocation"
	"github.com/m04kA/SMC-ResourceService/pkg/txmanager"
)

const (
	msgInvalidRequestBody    = "некорректное тело запроса"
	msgInvalidInput          = "некорректные данные аллокации"
	msgResourceNotFound      = "ресурс не найден"
	msgEventNotFound         = "событие не найдено"
	msgEventCancelled        = "событие отменено"
	msgInsufficientCapacity  = "недостаточно доступного количества ресурса"
	msgConcurrencyCap        = "превышен лимит одновременных бронирований ресурса"
	msgSerializationConflict = "конфликт одновременных бронирований, повторите запрос"
)

type Handler struct {
	useCase CreateAllocationUseCase
	logger  Logger
}

func NewHandler(useCase CreateAllocationUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/allocations
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateAllocationRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /allocations - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	resp, err := h.useCase.Execute(r.Context(), &createAllocation.Request{
		ResourceID: req.ResourceID,
		EventID:    req.EventID,
		Quantity:   req.Quantity,
	})
	if err != nil {
		// Отказ по мощности несет полную арифметику доступности - отдаем ее клиенту
		var capErr *createAllocation.CapacityError
		if errors.As(err, &capErr) {
			msg := msgInsufficientCapacity
			if errors.Is(err, createAllocation.ErrConcurrencyCapExceeded) {
				msg = msgConcurrencyCap
			}
			h.logger.Warn("POST /allocations - Capacity rejected: resource_id=%d, event_id=%d, error=%v",
				req.ResourceID, req.EventID, err)
			handlers.RespondCapacityRejection(w, http.StatusConflict, msg, capErr.Result)
			return
		}

		switch {
		case errors.Is(err, createAllocation.ErrInvalidInput):
			h.logger.Warn("POST /allocations - Invalid input: resource_id=%d, event_id=%d, error=%v",
				req.ResourceID, req.EventID, err)
			handlers.RespondUnprocessable(w, msgInvalidInput)

		case errors.Is(err, createAllocation.ErrResourceNotFound):
			h.logger.Warn("POST /allocations - Resource not found: resource_id=%d", req.ResourceID)
			handlers.RespondNotFound(w, msgResourceNotFound)

		case errors.Is(err, createAllocation.ErrEventNotFound):
			h.logger.Warn("POST /allocations - Event not found: event_id=%d", req.EventID)
			handlers.RespondNotFound(w, msgEventNotFound)

		case errors.Is(err, createAllocation.ErrEventCancelled):
			h.logger.Warn("POST /allocations - Event cancelled: event_id=%d", req.EventID)
			handlers.RespondError(w, http.StatusConflict, msgEventCancelled)

		case errors.Is(err, txmanager.ErrSerializationFailure):
			h.logger.Warn("POST /allocations - Serialization conflict: resource_id=%d, event_id=%d",
				req.ResourceID, req.EventID)
			handlers.RespondError(w, http.StatusConflict, msgSerializationConflict)

		default:
			h.logger.Error("POST /allocations - Failed: resource_id=%d, event_id=%d, error=%v",
				req.ResourceID, req.EventID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /allocations - Created: allocation_id=%d, resource_id=%d, event_id=%d, quantity=%d",
		resp.ID, resp.ResourceID, resp.EventID, resp.Quantity)
	handlers.RespondJSON(w, http.StatusCreated, fromUseCaseResponse(resp))
}
