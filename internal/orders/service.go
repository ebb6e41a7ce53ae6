package orders

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tantu-erp/tantu/internal/shared"
)

// Service provides business logic for main orders.
type Service struct {
	repo     Repository
	logger   *slog.Logger
	recorder shared.LifecycleRecorder
}

// NewService creates a new service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, recorder: shared.NopRecorder}
}

// SetRecorder sets the lifecycle event sink.
func (s *Service) SetRecorder(r shared.LifecycleRecorder) {
	if r != nil {
		s.recorder = r
	}
}

// Create places a new order after checking references and the customer's credit.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest) (*WithDetails, error) {
	if err := ValidateCreateRequest(req); err != nil {
		return nil, err
	}
	rate := req.Rate.Round(2)
	total := TotalAmount(req.Quantity, rate)

	var id int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		customer, err := tx.LockCustomer(ctx, req.CustomerID)
		if err != nil {
			return fmt.Errorf("get customer: %w", err)
		}
		if ok, err := tx.ProductExists(ctx, req.ProductID); err != nil {
			return fmt.Errorf("check product: %w", err)
		} else if !ok {
			return shared.NotFound("product", req.ProductID)
		}
		if ok, err := tx.MillExists(ctx, req.MillID); err != nil {
			return fmt.Errorf("check mill: %w", err)
		} else if !ok {
			return shared.NotFound("mill", req.MillID)
		}
		if headroom, limited := customer.AvailableCredit(); limited && total.GreaterThan(headroom) {
			return fmt.Errorf("%w: outstanding %s plus order %s exceeds limit %s",
				ErrCreditLimitExceeded, customer.OutstandingAmount.StringFixed(2), total.StringFixed(2), customer.CreditLimit.StringFixed(2))
		}

		order, err := tx.Insert(ctx, MainOrder{
			CustomerID:        req.CustomerID,
			ProductID:         req.ProductID,
			MillID:            req.MillID,
			Quantity:          req.Quantity,
			Rate:              rate,
			TotalAmount:       total,
			RemainingQuantity: req.Quantity,
			Status:            StatusPending,
		})
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		id = order.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recorder.RecordLifecycle("order", "created", 1)
	s.logger.Info("order created", slog.Int64("order_id", id), slog.Int64("customer_id", req.CustomerID), slog.String("total", total.StringFixed(2)))
	return s.repo.Get(ctx, id)
}

// Update applies a partial update. Derived fields are recomputed from the
// stored delivered quantity, never taken from the request as-is.
func (s *Service) Update(ctx context.Context, id int64, req UpdateOrderRequest) (*WithDetails, error) {
	if err := ValidateUpdateRequest(req); err != nil {
		return nil, err
	}
	if req.empty() {
		return s.repo.Get(ctx, id)
	}
	if req.Status != nil && *req.Status == StatusCancelled {
		if req.Quantity != nil || req.Rate != nil || req.RemainingQuantity != nil {
			return nil, shared.Validation("cancellation cannot be combined with other changes")
		}
		return s.Cancel(ctx, id)
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.LockOrder(ctx, id)
		if err != nil {
			return err
		}
		next, err := applyUpdate(*current, req)
		if err != nil {
			return err
		}
		return tx.Update(ctx, id, diff(*current, next))
	})
	if err != nil {
		return nil, fmt.Errorf("update order %d: %w", id, err)
	}

	s.recorder.RecordLifecycle("order", "updated", 1)
	return s.repo.Get(ctx, id)
}

// Cancel moves an open order to cancelled. Scheduled deliveries are cancelled
// with it and their quantity restored; billed orders cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, id int64) (*WithDetails, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.LockOrder(ctx, id)
		if err != nil {
			return err
		}
		if !order.Status.CanCancel() {
			return shared.Transition("order", order.Status, StatusCancelled)
		}
		billed, err := tx.CountBilledDeliveries(ctx, id)
		if err != nil {
			return fmt.Errorf("count billed deliveries: %w", err)
		}
		if billed > 0 {
			return fmt.Errorf("%w: %d billed deliveries", ErrOrderBilled, billed)
		}
		restored, err := tx.CancelScheduledDeliveries(ctx, id)
		if err != nil {
			return fmt.Errorf("cancel scheduled deliveries: %w", err)
		}
		return tx.Update(ctx, id, map[string]interface{}{
			"status":             StatusCancelled,
			"remaining_quantity": order.RemainingQuantity + restored,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("cancel order %d: %w", id, err)
	}

	s.recorder.RecordLifecycle("order", "cancelled", 1)
	s.logger.Info("order cancelled", slog.Int64("order_id", id))
	return s.repo.Get(ctx, id)
}

// Get returns the joined view of an order.
func (s *Service) Get(ctx context.Context, id int64) (*WithDetails, error) {
	return s.repo.Get(ctx, id)
}

// List returns orders oldest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]WithDetails, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, shared.Validation("unknown order status %q", *filter.Status)
	}
	return s.repo.List(ctx, filter)
}

func applyUpdate(current MainOrder, req UpdateOrderRequest) (MainOrder, error) {
	if current.Status == StatusCancelled {
		return current, ErrOrderCancelled
	}
	delivered := current.Delivered()
	next := current

	if req.Quantity != nil {
		if *req.Quantity < delivered {
			return current, fmt.Errorf("%w: quantity %d, delivered %d", ErrQuantityBelowDelivered, *req.Quantity, delivered)
		}
		next.Quantity = *req.Quantity
	}
	if req.Rate != nil {
		next.Rate = req.Rate.Round(2)
	}

	next.RemainingQuantity = next.Quantity - delivered
	if req.RemainingQuantity != nil {
		remaining := *req.RemainingQuantity
		if remaining < 0 || remaining > next.Quantity {
			return current, fmt.Errorf("%w: %d not in [0, %d]", ErrRemainingOutOfRange, remaining, next.Quantity)
		}
		if remaining != next.RemainingQuantity {
			return current, fmt.Errorf("%w: expected %d", ErrRemainingMismatch, next.RemainingQuantity)
		}
	}

	derived := DeriveStatus(next.Quantity, next.RemainingQuantity)
	if req.Status != nil {
		want := *req.Status
		if !current.Status.CanTransitionTo(want) {
			return current, shared.Transition("order", current.Status, want)
		}
		if want == StatusDelivered && next.RemainingQuantity > 0 {
			return current, fmt.Errorf("%w: %d remaining", ErrDeliveredWithRemaining, next.RemainingQuantity)
		}
		if want != derived {
			return current, fmt.Errorf("%w: %s requested, %s implied", ErrStatusMismatch, want, derived)
		}
	}
	if !current.Status.CanTransitionTo(derived) {
		return current, shared.Transition("order", current.Status, derived)
	}
	next.Status = derived
	next.TotalAmount = TotalAmount(next.Quantity, next.Rate)
	if err := validateTotal(next.TotalAmount); err != nil {
		return current, err
	}
	return next, nil
}

func diff(current, next MainOrder) map[string]interface{} {
	updates := make(map[string]interface{})
	if next.Quantity != current.Quantity {
		updates["quantity"] = next.Quantity
	}
	if !next.Rate.Equal(current.Rate) {
		updates["rate"] = next.Rate
	}
	if !next.TotalAmount.Equal(current.TotalAmount) {
		updates["total_amount"] = next.TotalAmount
	}
	if next.RemainingQuantity != current.RemainingQuantity {
		updates["remaining_quantity"] = next.RemainingQuantity
	}
	if next.Status != current.Status {
		updates["status"] = next.Status
	}
	return updates
}
