package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/tantu-erp/tantu/internal/deliveries"
	"github.com/tantu-erp/tantu/internal/orders"
	"github.com/tantu-erp/tantu/internal/platform/db"
	"github.com/tantu-erp/tantu/internal/shared"
)

// idempotencyModule scopes payment idempotency keys.
const idempotencyModule = "billing.payment"

// Repository defines bill persistence.
type Repository interface {
	Get(ctx context.Context, id int64) (*Bill, error)
	List(ctx context.Context, filter ListFilter) ([]Bill, error)
	ListPayments(ctx context.Context, billID int64) ([]Payment, error)
	// MarkOverdue flips every open bill due before today in one statement.
	MarkOverdue(ctx context.Context, today shared.Date) (int64, error)

	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes transactional operations. Locks are taken order,
// then delivery, then bill, then customer.
type TxRepository interface {
	LockOrderForDelivery(ctx context.Context, deliveryID int64) (*orders.MainOrder, error)
	LockDelivery(ctx context.Context, id int64) (*deliveries.DeliveryOrder, error)
	CustomerName(ctx context.Context, customerID int64) (string, error)
	InsertBill(ctx context.Context, bill Bill) (*Bill, error)
	AttachBill(ctx context.Context, deliveryID, billID int64) error
	LockBill(ctx context.Context, id int64) (*Bill, error)
	SavePaymentState(ctx context.Context, bill Bill) error
	InsertPayment(ctx context.Context, payment Payment) (*Payment, error)
	AdjustOutstanding(ctx context.Context, customerID int64, delta decimal.Decimal) error
	ClaimIdempotencyKey(ctx context.Context, key string) error
}

type repository struct {
	pool *pgxpool.Pool
	idem *shared.IdempotencyStore
}

// NewRepository creates a new repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool, idem: shared.NewIdempotencyStore(pool)}
}

type txRepository struct {
	tx   pgx.Tx
	idem *shared.IdempotencyStore
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx, idem: r.idem.WithQuerier(tx)})
	})
}

func (r *repository) Get(ctx context.Context, id int64) (*Bill, error) {
	b, err := scanBill(r.pool.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFound("bill", id)
	}
	return b, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Bill, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if filter.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, *filter.CustomerID)
		argPos++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *filter.Status)
		argPos++
	}

	query := `SELECT ` + billColumns + ` FROM bills`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bills: %w", err)
	}
	defer rows.Close()

	bills := make([]Bill, 0)
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, *b)
	}
	return bills, rows.Err()
}

func (r *repository) ListPayments(ctx context.Context, billID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+paymentColumns+` FROM bill_payments WHERE bill_id = $1 ORDER BY paid_at, id`, billID)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	payments := make([]Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func (r *repository) MarkOverdue(ctx context.Context, today shared.Date) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bills SET status = 'overdue', updated_at = now()
		WHERE status IN ('unpaid', 'partially_paid') AND due_date < $1`, today.Time)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// LockOrderForDelivery locks the delivery's parent order FOR SHARE so its
// rate cannot change while the bill amount is computed.
func (t *txRepository) LockOrderForDelivery(ctx context.Context, deliveryID int64) (*orders.MainOrder, error) {
	o, err := orders.ScanOrder(t.tx.QueryRow(ctx, `
		SELECT `+orders.Columns+` FROM main_orders
		WHERE id = (SELECT main_order_id FROM delivery_orders WHERE id = $1)
		FOR SHARE`, deliveryID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFound("delivery", deliveryID)
	}
	return o, err
}

func (t *txRepository) LockDelivery(ctx context.Context, id int64) (*deliveries.DeliveryOrder, error) {
	d, err := deliveries.ScanDelivery(t.tx.QueryRow(ctx,
		`SELECT `+deliveries.Columns+` FROM delivery_orders WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFound("delivery", id)
	}
	return d, err
}

func (t *txRepository) CustomerName(ctx context.Context, customerID int64) (string, error) {
	var name string
	err := t.tx.QueryRow(ctx, `SELECT name FROM customers WHERE id = $1`, customerID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", shared.NotFound("customer", customerID)
	}
	return name, err
}

func (t *txRepository) InsertBill(ctx context.Context, b Bill) (*Bill, error) {
	bill, err := scanBill(t.tx.QueryRow(ctx, `
		INSERT INTO bills (
			customer_id, customer_name, main_order_id, delivery_order_id,
			amount, paid_amount, due_amount, bill_date, due_date, status, file_url
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+billColumns,
		b.CustomerID, b.CustomerName, b.MainOrderID, b.DeliveryOrderID,
		b.Amount, b.PaidAmount, b.DueAmount, b.BillDate.Time, b.DueDate.Time, b.Status, b.FileURL,
	))
	if db.IsUniqueViolation(err) {
		return nil, ErrAlreadyBilled
	}
	return bill, err
}

func (t *txRepository) AttachBill(ctx context.Context, deliveryID, billID int64) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE delivery_orders SET bill_id = $1, updated_at = now() WHERE id = $2`, billID, deliveryID)
	return err
}

func (t *txRepository) LockBill(ctx context.Context, id int64) (*Bill, error) {
	b, err := scanBill(t.tx.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFound("bill", id)
	}
	return b, err
}

func (t *txRepository) SavePaymentState(ctx context.Context, b Bill) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE bills SET paid_amount = $1, due_amount = $2, status = $3, updated_at = now()
		WHERE id = $4`, b.PaidAmount, b.DueAmount, b.Status, b.ID)
	return err
}

func (t *txRepository) InsertPayment(ctx context.Context, p Payment) (*Payment, error) {
	return scanPayment(t.tx.QueryRow(ctx, `
		INSERT INTO bill_payments (bill_id, reference, amount, note, paid_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+paymentColumns,
		p.BillID, p.Reference, p.Amount, p.Note, p.PaidAt,
	))
}

func (t *txRepository) AdjustOutstanding(ctx context.Context, customerID int64, delta decimal.Decimal) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE customers SET outstanding_amount = outstanding_amount + $1 WHERE id = $2`, delta, customerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("customer", customerID)
	}
	return nil
}

func (t *txRepository) ClaimIdempotencyKey(ctx context.Context, key string) error {
	return t.idem.CheckAndInsert(ctx, key, idempotencyModule)
}
