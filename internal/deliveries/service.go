package deliveries

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tantu-erp/tantu/internal/shared"
)

// Service provides business logic for delivery orders.
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

// Record schedules a delivery and deducts its quantity from the order.
func (s *Service) Record(ctx context.Context, mainOrderID int64, req RecordDeliveryRequest) (*DeliveryOrder, error) {
	if err := shared.Validate(req); err != nil {
		return nil, err
	}
	if req.DeliveryDate.IsZero() {
		return nil, shared.Validation("delivery_date is required")
	}

	var created *DeliveryOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.LockOrder(ctx, mainOrderID)
		if err != nil {
			return err
		}
		if err := order.Reserve(req.Quantity); err != nil {
			return err
		}
		created, err = tx.Insert(ctx, DeliveryOrder{
			MainOrderID:  mainOrderID,
			Quantity:     req.Quantity,
			DeliveryDate: req.DeliveryDate,
			Status:       StatusScheduled,
		})
		if err != nil {
			return fmt.Errorf("insert delivery: %w", err)
		}
		return tx.SaveOrderBalance(ctx, *order)
	})
	if err != nil {
		return nil, fmt.Errorf("record delivery for order %d: %w", mainOrderID, err)
	}

	s.recorder.RecordLifecycle("delivery", "scheduled", 1)
	s.logger.Info("delivery recorded",
		slog.Int64("delivery_id", created.ID),
		slog.Int64("order_id", mainOrderID),
		slog.Int("quantity", req.Quantity))
	return created, nil
}

// MarkDelivered moves a scheduled delivery to delivered.
func (s *Service) MarkDelivered(ctx context.Context, id int64) (*DeliveryOrder, error) {
	var delivery *DeliveryOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		d, err := tx.LockDelivery(ctx, id)
		if err != nil {
			return err
		}
		if !d.Status.CanDeliver() {
			return shared.Transition("delivery", d.Status, StatusDelivered)
		}
		if err := tx.UpdateStatus(ctx, id, StatusDelivered); err != nil {
			return err
		}
		d.Status = StatusDelivered
		delivery = d
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("mark delivery %d delivered: %w", id, err)
	}
	s.recorder.RecordLifecycle("delivery", "delivered", 1)
	return delivery, nil
}

// Cancel cancels a scheduled, unbilled delivery and restores its quantity
// to the order.
func (s *Service) Cancel(ctx context.Context, id int64) (*DeliveryOrder, error) {
	var delivery *DeliveryOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		orderID, err := tx.OrderIDOf(ctx, id)
		if err != nil {
			return err
		}
		order, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		d, err := tx.LockDelivery(ctx, id)
		if err != nil {
			return err
		}
		if d.IsBilled() {
			return fmt.Errorf("%w: delivery %d is billed", shared.ErrInvalidTransition, id)
		}
		if !d.Status.CanCancel() {
			return shared.Transition("delivery", d.Status, StatusCancelled)
		}
		if err := order.Release(d.Quantity); err != nil {
			return err
		}
		if err := tx.UpdateStatus(ctx, id, StatusCancelled); err != nil {
			return err
		}
		d.Status = StatusCancelled
		delivery = d
		return tx.SaveOrderBalance(ctx, *order)
	})
	if err != nil {
		return nil, fmt.Errorf("cancel delivery %d: %w", id, err)
	}
	s.recorder.RecordLifecycle("delivery", "cancelled", 1)
	s.logger.Info("delivery cancelled", slog.Int64("delivery_id", id), slog.Int("restored", delivery.Quantity))
	return delivery, nil
}

// Get returns a delivery.
func (s *Service) Get(ctx context.Context, id int64) (*DeliveryOrder, error) {
	return s.repo.Get(ctx, id)
}

// ListByOrder returns an order's deliveries oldest first.
func (s *Service) ListByOrder(ctx context.Context, mainOrderID int64) ([]DeliveryOrder, error) {
	exists, err := s.repo.OrderExists(ctx, mainOrderID)
	if err != nil {
		return nil, fmt.Errorf("check order: %w", err)
	}
	if !exists {
		return nil, shared.NotFound("order", mainOrderID)
	}
	return s.repo.ListByOrder(ctx, mainOrderID)
}
