// Package deliveries records partial deliveries against main orders.
package deliveries

import (
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/tantu-erp/tantu/internal/shared"
)

// Status represents the lifecycle of a delivery order.
type Status string

const (
	StatusScheduled Status = "scheduled" // Quantity reserved, goods not yet handed over
	StatusDelivered Status = "delivered" // Customer received goods, billable
	StatusCancelled Status = "cancelled" // Quantity returned to the order
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

// CanDeliver checks if the delivery can be marked delivered.
func (s Status) CanDeliver() bool {
	return s == StatusScheduled
}

// CanCancel checks if the delivery can be cancelled.
func (s Status) CanCancel() bool {
	return s == StatusScheduled
}

// DeliveryOrder is one shipment against a main order.
type DeliveryOrder struct {
	ID           int64       `json:"id"`
	MainOrderID  int64       `json:"main_order_id"`
	Quantity     int         `json:"quantity"`
	DeliveryDate shared.Date `json:"delivery_date"`
	Status       Status      `json:"status"`
	BillID       *int64      `json:"bill_id,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// IsBilled reports whether a bill was issued for the delivery.
func (d DeliveryOrder) IsBilled() bool {
	return d.BillID != nil
}

// Columns lists delivery_orders columns in ScanDelivery order.
const Columns = `id, main_order_id, quantity, delivery_date, status, bill_id, created_at, updated_at`

// ScanDelivery scans a row selected with Columns.
func ScanDelivery(row pgx.Row) (*DeliveryOrder, error) {
	var d DeliveryOrder
	var date time.Time
	err := row.Scan(&d.ID, &d.MainOrderID, &d.Quantity, &date, &d.Status, &d.BillID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.DeliveryDate = shared.NewDate(date)
	return &d, nil
}

// RecordDeliveryRequest represents request to record a delivery.
type RecordDeliveryRequest struct {
	Quantity     int         `json:"quantity" validate:"required,gt=0,lte=2147483647"`
	DeliveryDate shared.Date `json:"delivery_date"`
}
