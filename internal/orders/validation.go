package orders

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/tantu-erp/tantu/internal/shared"
)

// maxAmount is the exclusive upper bound of NUMERIC(14,2).
var maxAmount = decimal.New(1, 12)

// MaxQuantity is the largest quantity an INTEGER column holds.
const MaxQuantity = math.MaxInt32

// maxRate is the exclusive upper bound of NUMERIC(10,2).
var maxRate = decimal.New(1, 8)

func validateRate(rate decimal.Decimal) error {
	if !rate.IsPositive() || !rate.Equal(rate.Round(2)) || rate.GreaterThanOrEqual(maxRate) {
		return ErrInvalidRate
	}
	return nil
}

func validateTotal(total decimal.Decimal) error {
	if total.GreaterThanOrEqual(maxAmount) {
		return ErrTotalTooLarge
	}
	return nil
}

// ValidateCreateRequest validates create request.
func ValidateCreateRequest(req CreateOrderRequest) error {
	if err := shared.Validate(req); err != nil {
		return err
	}
	if err := validateRate(req.Rate); err != nil {
		return err
	}
	return validateTotal(TotalAmount(req.Quantity, req.Rate))
}

// ValidateUpdateRequest validates update request.
func ValidateUpdateRequest(req UpdateOrderRequest) error {
	if req.Quantity != nil {
		if *req.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		if *req.Quantity > MaxQuantity {
			return ErrQuantityTooLarge
		}
	}
	if req.Rate != nil {
		if err := validateRate(*req.Rate); err != nil {
			return err
		}
	}
	if req.Status != nil && !req.Status.IsValid() {
		return shared.Validation("unknown order status %q", *req.Status)
	}
	if req.RemainingQuantity != nil {
		if *req.RemainingQuantity > MaxQuantity {
			return ErrQuantityTooLarge
		}
		if *req.RemainingQuantity < 0 {
			return ErrRemainingOutOfRange
		}
	}
	return nil
}
