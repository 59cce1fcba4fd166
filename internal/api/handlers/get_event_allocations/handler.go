package get_event_allocations

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ResourceService/internal/api/handlers"
)

const msgInvalidEventID = "некорректный ID события"

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

// Handle GET /api/v1/events/{eventId}/allocations
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventID, err := strconv.ParseInt(vars["eventId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /events/{id}/allocations - Invalid event ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidEventID)
		return
	}

	// Пустой список для события без аллокаций - не ошибка
	resp, err := h.service.GetByEvent(r.Context(), eventID)
	if err != nil {
		h.logger.Error("GET /events/{id}/allocations - Failed: event_id=%d, error=%v", eventID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /events/{id}/allocations - Retrieved: event_id=%d, count=%d",
		eventID, len(resp.Allocations))
	handlers.RespondJSON(w, http.StatusOK, resp)
}
