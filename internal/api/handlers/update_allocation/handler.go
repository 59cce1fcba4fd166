package update_allocation

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ResourceService/internal/api/handlers"
	updateAllocation "github.com/m04kA/SMC-ResourceService/internal/usecase/update_allocation"
	"github.com/m04kA/SMC-ResourceService/pkg/txmanager"
)

const (
	msgInvalidAllocationID   = "некорректный ID аллокации"
	msgInvalidRequestBody    = "некорректное тело запроса"
	msgInvalidInput          = "некорректные данные изменения"
	msgAllocationNotFound    = "аллокация не найдена"
	msgResourceNotFound      = "ресурс не найден"
	msgEventCancelled        = "событие отменено"
	msgInsufficientCapacity  = "недостаточно доступного количества ресурса"
	msgConcurrencyCap        = "превышен лимит одновременных бронирований ресурса"
	msgSerializationConflict = "конфликт одновременных бронирований, повторите запрос"
)

type Handler struct {
	useCase UpdateAllocationUseCase
	logger  Logger
}

func NewHandler(useCase UpdateAllocationUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/allocations/{allocationId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	allocationID, err := strconv.ParseInt(vars["allocationId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /allocations/{id} - Invalid allocation ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAllocationID)
		return
	}

	var req UpdateAllocationRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /allocations/{id} - Invalid request body: allocation_id=%d, error=%v",
			allocationID, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	resp, err := h.useCase.Execute(r.Context(), &updateAllocation.Request{
		AllocationID: allocationID,
		Quantity:     req.Quantity,
		ResourceID:   req.ResourceID,
	})
	if err != nil {
		var capErr *updateAllocation.CapacityError
		if errors.As(err, &capErr) {
			msg := msgInsufficientCapacity
			if errors.Is(err, updateAllocation.ErrConcurrencyCapExceeded) {
				msg = msgConcurrencyCap
			}
			h.logger.Warn("PATCH /allocations/{id} - Capacity rejected: allocation_id=%d, error=%v",
				allocationID, err)
			handlers.RespondCapacityRejection(w, http.StatusConflict, msg, capErr.Result)
			return
		}

		switch {
		case errors.Is(err, updateAllocation.ErrInvalidInput):
			h.logger.Warn("PATCH /allocations/{id} - Invalid input: allocation_id=%d, error=%v",
				allocationID, err)
			handlers.RespondUnprocessable(w, msgInvalidInput)

		case errors.Is(err, updateAllocation.ErrAllocationNotFound):
			h.logger.Warn("PATCH /allocations/{id} - Allocation not found: allocation_id=%d", allocationID)
			handlers.RespondNotFound(w, msgAllocationNotFound)

		case errors.Is(err, updateAllocation.ErrResourceNotFound):
			h.logger.Warn("PATCH /allocations/{id} - Resource not found: allocation_id=%d", allocationID)
			handlers.RespondNotFound(w, msgResourceNotFound)

		case errors.Is(err, updateAllocation.ErrEventCancelled):
			h.logger.Warn("PATCH /allocations/{id} - Event cancelled: allocation_id=%d", allocationID)
			handlers.RespondError(w, http.StatusConflict, msgEventCancelled)

		case errors.Is(err, txmanager.ErrSerializationFailure):
			h.logger.Warn("PATCH /allocations/{id} - Serialization conflict: allocation_id=%d", allocationID)
			handlers.RespondError(w, http.StatusConflict, msgSerializationConflict)

		default:
			h.logger.Error("PATCH /allocations/{id} - Failed: allocation_id=%d, error=%v", allocationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /allocations/{id} - Updated: allocation_id=%d, resource_id=%d, quantity=%d",
		resp.ID, resp.ResourceID, resp.Quantity)
	handlers.RespondJSON(w, http.StatusOK, fromUseCaseResponse(resp))
}
