package restock_resource

// RestockRequest модель запроса на пополнение запаса
type RestockRequest struct {
	Quantity int     `json:"quantity"`
	Note     *string `json:"note,omitempty"`
}
