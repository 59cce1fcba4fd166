package models

import (
	"time"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
)

// ResourceResponse модель ответа с карточкой ресурса
type ResourceResponse struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Type               string    `json:"type"`
	TotalQuantity      int       `json:"totalQuantity"`
	MaxConcurrentUsage *int      `json:"maxConcurrentUsage,omitempty"`
	OrganizationID     *int64    `json:"organizationId,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// ResourceListResponse модель ответа со списком ресурсов
type ResourceListResponse struct {
	Resources []ResourceResponse `json:"resources"`
}

// RestockRequest модель запроса на пополнение запаса расходуемого ресурса
type RestockRequest struct {
	ResourceID int64
	Quantity   int
	Note       *string
}

// RestockResponse модель ответа на пополнение запаса
type RestockResponse struct {
	ResourceID    int64 `json:"resourceId"`
	TotalQuantity int   `json:"totalQuantity"`
	LedgerEntryID int64 `json:"ledgerEntryId"`

	// LedgerBalance сумма дельт журнала после пополнения
	LedgerBalance int `json:"ledgerBalance"`
}

// StockEntryResponse одна запись журнала запаса
type StockEntryResponse struct {
	ID         int64     `json:"id"`
	EventID    *int64    `json:"eventId,omitempty"`
	Delta      int       `json:"delta"`
	Kind       string    `json:"kind"`
	Note       *string   `json:"note,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}

// StockLedgerResponse модель ответа с историей журнала запаса ресурса
type StockLedgerResponse struct {
	ResourceID int64 `json:"resourceId"`

	// Balance сумма дельт всех записей журнала
	Balance int `json:"balance"`

	Entries []StockEntryResponse `json:"entries"`
}

// FromDomainStockEntries конвертирует записи журнала в response с балансом
func FromDomainStockEntries(resourceID int64, entries []domain.StockEntry) *StockLedgerResponse {
	out := make([]StockEntryResponse, 0, len(entries))
	balance := 0
	for _, e := range entries {
		balance += e.Delta
		out = append(out, StockEntryResponse{
			ID:         e.ID,
			EventID:    e.EventID,
			Delta:      e.Delta,
			Kind:       string(e.Kind),
			Note:       e.Note,
			RecordedAt: e.RecordedAt,
		})
	}
	return &StockLedgerResponse{
		ResourceID: resourceID,
		Balance:    balance,
		Entries:    out,
	}
}

// FromDomainResource конвертирует доменную модель в response
func FromDomainResource(res *domain.Resource) *ResourceResponse {
	return &ResourceResponse{
		ID:                 res.ID,
		Name:               res.Name,
		Type:               string(res.Type),
		TotalQuantity:      res.TotalQuantity,
		MaxConcurrentUsage: res.MaxConcurrentUsage,
		OrganizationID:     res.OrganizationID,
		CreatedAt:          res.CreatedAt,
		UpdatedAt:          res.UpdatedAt,
	}
}

// FromDomainResourceList конвертирует список доменных моделей в response
func FromDomainResourceList(resources []*domain.Resource) *ResourceListResponse {
	out := make([]ResourceResponse, 0, len(resources))
	for _, r := range resources {
		out = append(out, *FromDomainResource(r))
	}
	return &ResourceListResponse{Resources: out}
}
