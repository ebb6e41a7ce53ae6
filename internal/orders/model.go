// Package orders implements the main order lifecycle: quantity, rate, total,
// remaining quantity and status.
package orders

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle of a main order.
type Status string

const (
	StatusPending            Status = "pending"
	StatusPartiallyDelivered Status = "partially_delivered"
	StatusDelivered          Status = "delivered"
	StatusCancelled          Status = "cancelled"
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPartiallyDelivered, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

// CanCancel checks if the order can still be cancelled.
func (s Status) CanCancel() bool {
	return s == StatusPending || s == StatusPartiallyDelivered
}

// CanTransitionTo reports whether next is reachable from s. Open orders move
// freely between the delivery-derived states; cancelled is terminal.
func (s Status) CanTransitionTo(next Status) bool {
	if !next.IsValid() {
		return false
	}
	switch s {
	case StatusPending, StatusPartiallyDelivered:
		return true
	case StatusDelivered:
		return next != StatusCancelled
	default:
		return false
	}
}

// DeriveStatus computes the status implied by the remaining balance.
func DeriveStatus(quantity, remaining int) Status {
	switch {
	case remaining == 0:
		return StatusDelivered
	case remaining == quantity:
		return StatusPending
	default:
		return StatusPartiallyDelivered
	}
}

// TotalAmount returns quantity × rate rounded to cents.
func TotalAmount(quantity int, rate decimal.Decimal) decimal.Decimal {
	return rate.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// MainOrder is a customer's order for a product sourced from a mill.
type MainOrder struct {
	ID                int64           `json:"id"`
	CustomerID        int64           `json:"customer_id"`
	ProductID         int64           `json:"product_id"`
	MillID            int64           `json:"mill_id"`
	Quantity          int             `json:"quantity"`
	Rate              decimal.Decimal `json:"rate"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	RemainingQuantity int             `json:"remaining_quantity"`
	Status            Status          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Delivered returns the quantity held by non-cancelled deliveries.
func (o MainOrder) Delivered() int {
	return o.Quantity - o.RemainingQuantity
}

// Reserve deducts qty for a new delivery and recomputes the status.
func (o *MainOrder) Reserve(qty int) error {
	if o.Status == StatusCancelled {
		return ErrOrderCancelled
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if qty > o.RemainingQuantity {
		return fmt.Errorf("%w: requested %d, remaining %d", ErrQuantityExceedsRemaining, qty, o.RemainingQuantity)
	}
	o.RemainingQuantity -= qty
	o.Status = DeriveStatus(o.Quantity, o.RemainingQuantity)
	return nil
}

// Release returns qty from a cancelled delivery to the remaining balance.
func (o *MainOrder) Release(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if o.RemainingQuantity+qty > o.Quantity {
		return fmt.Errorf("%w: releasing %d would exceed quantity %d", ErrRemainingOutOfRange, qty, o.Quantity)
	}
	o.RemainingQuantity += qty
	if o.Status != StatusCancelled {
		o.Status = DeriveStatus(o.Quantity, o.RemainingQuantity)
	}
	return nil
}

// WithDetails is an order joined with its customer, product and mill names.
type WithDetails struct {
	MainOrder
	CustomerName string `json:"customer_name"`
	ProductName  string `json:"product_name"`
	MillName     string `json:"mill_name"`
}

// Columns lists main_orders columns in ScanOrder order.
const Columns = `id, customer_id, product_id, mill_id, quantity, rate, total_amount,
	remaining_quantity, status, created_at, updated_at`

// ScanOrder scans a row selected with Columns.
func ScanOrder(row pgx.Row) (*MainOrder, error) {
	var o MainOrder
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.ProductID, &o.MillID, &o.Quantity, &o.Rate, &o.TotalAmount,
		&o.RemainingQuantity, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
