package create_event_allocations

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-ResourceService/internal/api/handlers"
	createAllocation "github.com/m04kA/SMC-ResourceService/internal/usecase/create_allocation"
	"github.com/m04kA/SMC-ResourceService/pkg/txmanager"
)

const (
	msgInvalidRequestBody    = "некорректное тело запроса"
	msgInvalidTime           = "некорректный формат времени, ожидается RFC3339"
	msgInvalidInput          = "некорректные данные события или аллокаций"
	msgInvalidWindow         = "начало события должно быть раньше конца"
	msgResourceNotFound      = "ресурс не найден"
	msgEventNotFound         = "родительское событие не найдено"
	msgInsufficientCapacity  = "недостаточно доступного количества ресурса"
	msgConcurrencyCap        = "превышен лимит одновременных бронирований ресурса"
	msgSerializationConflict = "конфликт одновременных бронирований, повторите запрос"
)

type Handler struct {
	useCase CreateEventWithAllocationsUseCase
	logger  Logger
}

func NewHandler(useCase CreateEventWithAllocationsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/events-with-allocations
// Атомарный workflow: событие и все его аллокации создаются целиком или никак
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateEventWithAllocationsRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /events-with-allocations - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	startTime, err := time.Parse(time.RFC3339, req.Event.StartTime)
	if err != nil {
		h.logger.Warn("POST /events-with-allocations - Invalid startTime: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTime)
		return
	}
	endTime, err := time.Parse(time.RFC3339, req.Event.EndTime)
	if err != nil {
		h.logger.Warn("POST /events-with-allocations - Invalid endTime: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTime)
		return
	}

	resp, err := h.useCase.ExecuteWithEvent(r.Context(), req.toUseCaseRequest(startTime, endTime))
	if err != nil {
		var capErr *createAllocation.CapacityError
		if errors.As(err, &capErr) {
			msg := msgInsufficientCapacity
			if errors.Is(err, createAllocation.ErrConcurrencyCapExceeded) {
				msg = msgConcurrencyCap
			}
			h.logger.Warn("POST /events-with-allocations - Capacity rejected: title=%q, error=%v",
				req.Event.Title, err)
			handlers.RespondCapacityRejection(w, http.StatusConflict, msg, capErr.Result)
			return
		}

		switch {
		case errors.Is(err, createAllocation.ErrInvalidWindow):
			h.logger.Warn("POST /events-with-allocations - Invalid window: title=%q", req.Event.Title)
			handlers.RespondUnprocessable(w, msgInvalidWindow)

		case errors.Is(err, createAllocation.ErrInvalidInput):
			h.logger.Warn("POST /events-with-allocations - Invalid input: title=%q, error=%v",
				req.Event.Title, err)
			handlers.RespondUnprocessable(w, msgInvalidInput)

		case errors.Is(err, createAllocation.ErrResourceNotFound):
			h.logger.Warn("POST /events-with-allocations - Resource not found: title=%q, error=%v",
				req.Event.Title, err)
			handlers.RespondNotFound(w, msgResourceNotFound)

		case errors.Is(err, createAllocation.ErrEventNotFound):
			h.logger.Warn("POST /events-with-allocations - Parent event not found: title=%q", req.Event.Title)
			handlers.RespondNotFound(w, msgEventNotFound)

		case errors.Is(err, txmanager.ErrSerializationFailure):
			h.logger.Warn("POST /events-with-allocations - Serialization conflict: title=%q", req.Event.Title)
			handlers.RespondError(w, http.StatusConflict, msgSerializationConflict)

		default:
			h.logger.Error("POST /events-with-allocations - Failed: title=%q, error=%v", req.Event.Title, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /events-with-allocations - Created: event_id=%d, allocations=%d",
		resp.EventID, len(resp.Allocations))
	handlers.RespondJSON(w, http.StatusCreated, fromUseCaseResponse(resp))
}
