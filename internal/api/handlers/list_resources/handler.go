package list_resources

import (
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-ResourceService/internal/api/handlers"
)

const msgInvalidOrgID = "некорректный ID организации"

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

// Handle GET /api/v1/resources
// С organizationId возвращаются глобальные ресурсы плюс ресурсы организации,
// без него - каталог целиком
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var organizationID *int64
	if raw := r.URL.Query().Get("organizationId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.logger.Warn("GET /resources - Invalid organizationId: %v", err)
			handlers.RespondBadRequest(w, msgInvalidOrgID)
			return
		}
		organizationID = &id
	}

	resp, err := h.service.List(r.Context(), organizationID)
	if err != nil {
		h.logger.Error("GET /resources - Failed: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /resources - Retrieved: count=%d", len(resp.Resources))
	handlers.RespondJSON(w, http.StatusOK, resp)
}
