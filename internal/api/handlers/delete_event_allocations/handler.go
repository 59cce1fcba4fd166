package delete_event_allocations

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
	msgInvalidEventID        = "некорректный ID события"
	msgSerializationConflict = "конфликт одновременных операций, повторите запрос"
)

// DeletedResponse число удаленных аллокаций
type DeletedResponse struct {
	DeletedCount int64 `json:"deletedCount"`
}

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

// Handle DELETE /api/v1/events/{eventId}/allocations
// Снимает все брони события разом; запас расходуемых ресурсов возвращается
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventID, err := strconv.ParseInt(vars["eventId"], 10, 64)
	if err != nil {
		h.logger.Warn("DELETE /events/{id}/allocations - Invalid event ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidEventID)
		return
	}

	deleted, err := h.service.DeleteByEvent(r.Context(), eventID)
	if err != nil {
		switch {
		case errors.Is(err, allocations.ErrInvalidInput):
			h.logger.Warn("DELETE /events/{id}/allocations - Invalid event ID: event_id=%d", eventID)
			handlers.RespondBadRequest(w, msgInvalidEventID)

		case errors.Is(err, txmanager.ErrSerializationFailure):
			h.logger.Warn("DELETE /events/{id}/allocations - Serialization conflict: event_id=%d", eventID)
			handlers.RespondError(w, http.StatusConflict, msgSerializationConflict)

		default:
			h.logger.Error("DELETE /events/{id}/allocations - Failed: event_id=%d, error=%v", eventID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /events/{id}/allocations - Deleted: event_id=%d, count=%d", eventID, deleted)
	handlers.RespondJSON(w, http.StatusOK, DeletedResponse{DeletedCount: deleted})
}
