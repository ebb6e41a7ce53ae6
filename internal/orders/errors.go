package orders

import (
	"fmt"

	"github.com/tantu-erp/tantu/internal/shared"
)

// Domain errors for main orders. Each wraps a shared sentinel so the HTTP
// layer maps it without knowing this package.
var (
	ErrInvalidQuantity  = fmt.Errorf("%w: quantity must be greater than zero", shared.ErrValidation)
	ErrInvalidRate      = fmt.Errorf("%w: rate must be greater than zero with at most two decimals", shared.ErrValidation)
	ErrTotalTooLarge    = fmt.Errorf("%w: total amount exceeds the supported range", shared.ErrValidation)
	ErrQuantityTooLarge = fmt.Errorf("%w: quantity exceeds the supported range", shared.ErrValidation)

	ErrCreditLimitExceeded      = fmt.Errorf("%w: credit limit exceeded", shared.ErrInvariantViolation)
	ErrQuantityExceedsRemaining = fmt.Errorf("%w: delivery quantity exceeds remaining quantity", shared.ErrInvariantViolation)
	ErrQuantityBelowDelivered   = fmt.Errorf("%w: quantity below already delivered quantity", shared.ErrInvariantViolation)
	ErrRemainingOutOfRange      = fmt.Errorf("%w: remaining quantity outside [0, quantity]", shared.ErrInvariantViolation)
	ErrRemainingMismatch        = fmt.Errorf("%w: remaining quantity must equal quantity less delivered", shared.ErrInvariantViolation)
	ErrDeliveredWithRemaining   = fmt.Errorf("%w: order cannot be delivered while quantity remains", shared.ErrInvariantViolation)
	ErrStatusMismatch           = fmt.Errorf("%w: status does not match remaining quantity", shared.ErrInvariantViolation)

	ErrOrderCancelled = fmt.Errorf("%w: order is cancelled", shared.ErrInvalidTransition)
	ErrOrderBilled    = fmt.Errorf("%w: order has billed deliveries", shared.ErrInvalidTransition)
)
