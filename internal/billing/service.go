package billing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tantu-erp/tantu/internal/customers"
	"github.com/tantu-erp/tantu/internal/deliveries"
	"github.com/tantu-erp/tantu/internal/orders"
	"github.com/tantu-erp/tantu/internal/platform/cache"
	"github.com/tantu-erp/tantu/internal/shared"
)

// Service provides business logic for bills and payments.
type Service struct {
	repo     Repository
	logger   *slog.Logger
	dueDays  int
	renderer Renderer
	cache    *cache.Cache
	recorder shared.LifecycleRecorder
	now      func() time.Time
}

// NewService creates a new service. dueDays is the payment term applied when
// a bill is issued without a due date.
func NewService(repo Repository, logger *slog.Logger, dueDays int) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		logger:   logger,
		dueDays:  dueDays,
		recorder: shared.NopRecorder,
		now:      time.Now,
	}
}

// SetRenderer sets the PDF renderer used by RenderBill.
func (s *Service) SetRenderer(r Renderer) { s.renderer = r }

// SetCache sets the cache whose customer entries are invalidated when
// outstanding balances move.
func (s *Service) SetCache(c *cache.Cache) { s.cache = c }

// SetRecorder sets the lifecycle event sink.
func (s *Service) SetRecorder(r shared.LifecycleRecorder) {
	if r != nil {
		s.recorder = r
	}
}

// Today returns the current calendar date.
func (s *Service) Today() shared.Date {
	return shared.NewDate(s.now())
}

// IssueBill bills a delivered delivery at the order's rate and adds the
// amount to the customer's outstanding balance.
func (s *Service) IssueBill(ctx context.Context, deliveryID int64, req IssueBillRequest) (*Bill, error) {
	if err := shared.Validate(req); err != nil {
		return nil, err
	}
	billDate := req.BillDate
	if billDate.IsZero() {
		billDate = s.Today()
	}
	dueDate := req.DueDate
	if dueDate.IsZero() {
		dueDate = billDate.AddDays(s.dueDays)
	}
	if dueDate.Before(billDate) {
		return nil, ErrDueBeforeBill
	}
	fileURL := req.FileURL
	if fileURL != nil && strings.TrimSpace(*fileURL) == "" {
		fileURL = nil
	}

	var bill *Bill
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.LockOrderForDelivery(ctx, deliveryID)
		if err != nil {
			return err
		}
		if order.Status == orders.StatusCancelled {
			return ErrOrderCancelled
		}
		delivery, err := tx.LockDelivery(ctx, deliveryID)
		if err != nil {
			return err
		}
		if delivery.IsBilled() {
			return fmt.Errorf("%w: bill %d", ErrAlreadyBilled, *delivery.BillID)
		}
		if delivery.Status != deliveries.StatusDelivered {
			return fmt.Errorf("%w: delivery is %s", ErrNotDelivered, delivery.Status)
		}
		name, err := tx.CustomerName(ctx, order.CustomerID)
		if err != nil {
			return err
		}

		amount := orders.TotalAmount(delivery.Quantity, order.Rate)
		bill, err = tx.InsertBill(ctx, Bill{
			CustomerID:      order.CustomerID,
			CustomerName:    name,
			MainOrderID:     order.ID,
			DeliveryOrderID: delivery.ID,
			Amount:          amount,
			PaidAmount:      decimal.Zero,
			DueAmount:       amount,
			BillDate:        billDate,
			DueDate:         dueDate,
			Status:          StatusUnpaid,
			FileURL:         fileURL,
		})
		if err != nil {
			return err
		}
		if err := tx.AttachBill(ctx, delivery.ID, bill.ID); err != nil {
			return fmt.Errorf("attach bill: %w", err)
		}
		return tx.AdjustOutstanding(ctx, order.CustomerID, amount)
	})
	if err != nil {
		return nil, fmt.Errorf("issue bill for delivery %d: %w", deliveryID, err)
	}

	s.invalidateCustomers(ctx)
	s.recorder.RecordLifecycle("bill", "issued", 1)
	s.logger.Info("bill issued",
		slog.Int64("bill_id", bill.ID),
		slog.Int64("delivery_id", deliveryID),
		slog.String("amount", bill.Amount.StringFixed(2)))
	return bill, nil
}

// RecordPayment books a payment against a bill. A repeated idempotency key
// is rejected with shared.ErrIdempotencyConflict.
func (s *Service) RecordPayment(ctx context.Context, billID int64, req RecordPaymentRequest) (*PaymentResult, error) {
	if err := shared.Validate(req); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() || !req.Amount.Equal(req.Amount.Round(2)) {
		return nil, ErrInvalidAmount
	}
	note := ""
	if req.Note != nil {
		note = strings.TrimSpace(*req.Note)
	}
	key := strings.TrimSpace(req.IdempotencyKey)

	var result PaymentResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if key != "" {
			if err := tx.ClaimIdempotencyKey(ctx, key); err != nil {
				return err
			}
		}
		bill, err := tx.LockBill(ctx, billID)
		if err != nil {
			return err
		}
		if err := bill.ApplyPayment(req.Amount); err != nil {
			return err
		}
		if err := tx.SavePaymentState(ctx, *bill); err != nil {
			return fmt.Errorf("save bill: %w", err)
		}
		payment, err := tx.InsertPayment(ctx, Payment{
			BillID:    billID,
			Reference: uuid.New(),
			Amount:    req.Amount,
			Note:      note,
			PaidAt:    s.now(),
		})
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		if err := tx.AdjustOutstanding(ctx, bill.CustomerID, req.Amount.Neg()); err != nil {
			return err
		}
		result = PaymentResult{Bill: bill, Payment: payment}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record payment on bill %d: %w", billID, err)
	}

	s.invalidateCustomers(ctx)
	s.recorder.RecordLifecycle("bill", "payment", 1)
	if result.Bill.Status == StatusPaid {
		s.recorder.RecordLifecycle("bill", "paid", 1)
	}
	s.logger.Info("payment recorded",
		slog.Int64("bill_id", billID),
		slog.String("reference", result.Payment.Reference.String()),
		slog.String("amount", req.Amount.StringFixed(2)),
		slog.String("status", string(result.Bill.Status)))
	return &result, nil
}

// MarkOverdue moves every unpaid or partially paid bill due before today to
// overdue and returns how many changed. Running it twice for the same day
// changes nothing the second time.
func (s *Service) MarkOverdue(ctx context.Context, today shared.Date) (int64, error) {
	if today.IsZero() {
		today = s.Today()
	}
	n, err := s.repo.MarkOverdue(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("mark overdue: %w", err)
	}
	s.recorder.RecordLifecycle("bill", "overdue", int(n))
	s.logger.Info("overdue sweep finished", slog.String("today", today.String()), slog.Int64("marked", n))
	return n, nil
}

// Get returns a bill.
func (s *Service) Get(ctx context.Context, id int64) (*Bill, error) {
	return s.repo.Get(ctx, id)
}

// List returns bills oldest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Bill, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, shared.Validation("unknown bill status %q", *filter.Status)
	}
	return s.repo.List(ctx, filter)
}

// ListPayments returns a bill's payment log.
func (s *Service) ListPayments(ctx context.Context, billID int64) ([]Payment, error) {
	if _, err := s.repo.Get(ctx, billID); err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, billID)
}

// RenderBill renders the bill and its payments to PDF.
func (s *Service) RenderBill(ctx context.Context, billID int64) ([]byte, error) {
	if s.renderer == nil {
		return nil, ErrRendererUnavailable
	}
	bill, err := s.repo.Get(ctx, billID)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.ListPayments(ctx, billID)
	if err != nil {
		return nil, err
	}
	html, err := renderBillHTML(bill, payments)
	if err != nil {
		return nil, err
	}
	pdf, err := s.renderer.RenderHTML(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRendererUnavailable, err)
	}
	return pdf, nil
}

func (s *Service) invalidateCustomers(ctx context.Context) {
	if err := s.cache.Bump(ctx, customers.CacheNamespace); err != nil {
		s.logger.Warn("customer cache bump failed", slog.Any("error", err))
	}
}
