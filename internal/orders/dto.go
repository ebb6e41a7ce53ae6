package orders

import "github.com/shopspring/decimal"

// CreateOrderRequest represents request to create a main order.
type CreateOrderRequest struct {
	CustomerID int64           `json:"customer_id" validate:"required,gt=0"`
	ProductID  int64           `json:"product_id" validate:"required,gt=0"`
	MillID     int64           `json:"mill_id" validate:"required,gt=0"`
	Quantity   int             `json:"quantity" validate:"required,gt=0,lte=2147483647"`
	Rate       decimal.Decimal `json:"rate"`
}

// UpdateOrderRequest is a partial update. Nil fields are left unchanged.
type UpdateOrderRequest struct {
	Quantity          *int             `json:"quantity,omitempty"`
	Rate              *decimal.Decimal `json:"rate,omitempty"`
	Status            *Status          `json:"status,omitempty"`
	RemainingQuantity *int             `json:"remaining_quantity,omitempty"`
}

func (r UpdateOrderRequest) empty() bool {
	return r.Quantity == nil && r.Rate == nil && r.Status == nil && r.RemainingQuantity == nil
}

// ListFilter narrows ListOrders.
type ListFilter struct {
	CustomerID *int64
	Status     *Status
}
