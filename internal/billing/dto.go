package billing

import (
	"github.com/shopspring/decimal"
	"github.com/tantu-erp/tantu/internal/shared"
)

// IssueBillRequest carries optional dates; zero dates default to today and
// today plus the configured payment term.
type IssueBillRequest struct {
	BillDate shared.Date `json:"bill_date"`
	DueDate  shared.Date `json:"due_date"`
	FileURL  *string     `json:"file_url,omitempty" validate:"omitempty,max=2048"`
}

type RecordPaymentRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	Note           *string         `json:"note,omitempty" validate:"omitempty,max=500"`
	IdempotencyKey string          `json:"idempotency_key,omitempty" validate:"omitempty,max=100"`
}

type ListFilter struct {
	CustomerID *int64
	Status     *Status
}
