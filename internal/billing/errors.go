package billing

import (
	"errors"
	"fmt"

	"github.com/tantu-erp/tantu/internal/shared"
)

var (
	ErrInvalidAmount = fmt.Errorf("%w: amount must be greater than zero with at most two decimals", shared.ErrValidation)
	ErrDueBeforeBill = fmt.Errorf("%w: due_date must not be before bill_date", shared.ErrValidation)

	ErrOverpayment = fmt.Errorf("%w: payment exceeds due amount", shared.ErrInvariantViolation)

	ErrAlreadyBilled  = fmt.Errorf("%w: delivery already billed", shared.ErrInvalidTransition)
	ErrNotDelivered   = fmt.Errorf("%w: only delivered deliveries can be billed", shared.ErrInvalidTransition)
	ErrOrderCancelled = fmt.Errorf("%w: order is cancelled", shared.ErrInvalidTransition)

	// ErrRendererUnavailable is returned by RenderBill when no PDF renderer is configured.
	ErrRendererUnavailable = errors.New("pdf renderer unavailable")
)
