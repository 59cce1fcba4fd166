package check_availability

import (
	"github.com/m04kA/SMC-ResourceService/internal/domain"
)

// Request модель запроса проверки доступности
type Request struct {
	ResourceID        int64             // ID ресурса
	Window            domain.TimeWindow // Кандидатное окно [start, end)
	RequestedQuantity int               // Запрошенное количество (по умолчанию 1)
	ExcludeEventID    *int64            // Событие, чьи аллокации исключаются из проверки (опционально)
	OrganizationID    *int64            // Зона видимости вызывающего (опционально)
}

// Response модель ответа с вердиктом доступности
type Response struct {
	ResourceID   int64
	ResourceName string
	ResourceType domain.ResourceType

	Result domain.AvailabilityResult
}
