// Package billing issues bills for delivered goods, records payments against
// them and sweeps unpaid bills past their due date to overdue.
package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tantu-erp/tantu/internal/shared"
)

// Status represents the payment state of a bill.
type Status string

const (
	StatusUnpaid        Status = "unpaid"
	StatusPartiallyPaid Status = "partially_paid"
	StatusPaid          Status = "paid"
	StatusOverdue       Status = "overdue"
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusUnpaid, StatusPartiallyPaid, StatusPaid, StatusOverdue:
		return true
	default:
		return false
	}
}

// AcceptsPayment reports whether money can still be received.
func (s Status) AcceptsPayment() bool {
	return s == StatusUnpaid || s == StatusPartiallyPaid || s == StatusOverdue
}

// CanBecomeOverdue reports whether the overdue sweep may move the bill.
func (s Status) CanBecomeOverdue() bool {
	return s == StatusUnpaid || s == StatusPartiallyPaid
}

// Bill is issued once per delivered delivery order.
type Bill struct {
	ID              int64           `json:"id"`
	CustomerID      int64           `json:"customer_id"`
	CustomerName    string          `json:"customer_name"`
	MainOrderID     int64           `json:"main_order_id"`
	DeliveryOrderID int64           `json:"delivery_order_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	DueAmount       decimal.Decimal `json:"due_amount"`
	BillDate        shared.Date     `json:"bill_date"`
	DueDate         shared.Date     `json:"due_date"`
	Status          Status          `json:"status"`
	FileURL         *string         `json:"file_url,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ApplyPayment books amount against the bill. amount == paid + due holds
// before and after. A partial payment leaves the bill partially_paid, even
// when it was overdue; the next sweep re-marks it if it is still past due.
func (b *Bill) ApplyPayment(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if amount.GreaterThan(b.DueAmount) {
		return fmt.Errorf("%w: paying %s, due %s", ErrOverpayment, amount.StringFixed(2), b.DueAmount.StringFixed(2))
	}
	if !b.Status.AcceptsPayment() {
		return shared.Transition("bill", b.Status, "payment")
	}
	b.PaidAmount = b.PaidAmount.Add(amount)
	b.DueAmount = b.DueAmount.Sub(amount)
	switch {
	case b.DueAmount.IsZero():
		b.Status = StatusPaid
	default:
		b.Status = StatusPartiallyPaid
	}
	return nil
}

// IsOverdueOn reports whether the sweep on today would mark the bill overdue.
func (b Bill) IsOverdueOn(today shared.Date) bool {
	return b.Status.CanBecomeOverdue() && b.DueDate.Before(today)
}

// Payment is one entry of a bill's append-only payment log.
type Payment struct {
	ID        int64           `json:"id"`
	BillID    int64           `json:"bill_id"`
	Reference uuid.UUID       `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note"`
	PaidAt    time.Time       `json:"paid_at"`
}

// PaymentResult is returned by RecordPayment.
type PaymentResult struct {
	Bill    *Bill    `json:"bill"`
	Payment *Payment `json:"payment"`
}

const billColumns = `id, customer_id, customer_name, main_order_id, delivery_order_id,
	amount, paid_amount, due_amount, bill_date, due_date, status, file_url, created_at, updated_at`

func scanBill(row pgx.Row) (*Bill, error) {
	var b Bill
	var billDate, dueDate time.Time
	err := row.Scan(
		&b.ID, &b.CustomerID, &b.CustomerName, &b.MainOrderID, &b.DeliveryOrderID,
		&b.Amount, &b.PaidAmount, &b.DueAmount, &billDate, &dueDate, &b.Status, &b.FileURL,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.BillDate = shared.NewDate(billDate)
	b.DueDate = shared.NewDate(dueDate)
	return &b, nil
}

const paymentColumns = `id, bill_id, reference, amount, note, paid_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	if err := row.Scan(&p.ID, &p.BillID, &p.Reference, &p.Amount, &p.Note, &p.PaidAt); err != nil {
		return nil, err
	}
	return &p, nil
}
