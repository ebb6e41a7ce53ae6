package deliveries

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tantu-erp/tantu/internal/orders"
	"github.com/tantu-erp/tantu/internal/platform/db"
	"github.com/tantu-erp/tantu/internal/shared"
)

// Repository defines the interface for delivery persistence.
type Repository interface {
	Get(ctx context.Context, id int64) (*DeliveryOrder, error)
	ListByOrder(ctx context.Context, mainOrderID int64) ([]DeliveryOrder, error)
	OrderExists(ctx context.Context, mainOrderID int64) (bool, error)

	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes transactional write operations. Callers lock the
// parent order before its deliveries.
type TxRepository interface {
	LockOrder(ctx context.Context, id int64) (*orders.MainOrder, error)
	SaveOrderBalance(ctx context.Context, order orders.MainOrder) error
	OrderIDOf(ctx context.Context, deliveryID int64) (int64, error)
	LockDelivery(ctx context.Context, id int64) (*DeliveryOrder, error)
	Insert(ctx context.Context, d DeliveryOrder) (*DeliveryOrder, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *repository) Get(ctx context.Context, id int64) (*DeliveryOrder, error) {
	d, err := ScanDelivery(r.pool.QueryRow(ctx, `SELECT `+Columns+` FROM delivery_orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFound("delivery", id)
	}
	return d, err
}

func (r *repository) ListByOrder(ctx context.Context, mainOrderID int64) ([]DeliveryOrder, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+Columns+` FROM delivery_orders WHERE main_order_id = $1 ORDER BY created_at, id`, mainOrderID)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	list := make([]DeliveryOrder, 0)
	for rows.Next() {
		d, err := ScanDelivery(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *d)
	}
	return list, rows.Err()
}

func (r *repository) OrderExists(ctx context.Context, mainOrderID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM main_orders WHERE id = $1)`, mainOrderID).Scan(&exists)
	return exists, err
}

// LockOrder selects the parent order FOR UPDATE so concurrent deliveries
// against it serialize.
func (t *txRepository) LockOrder(ctx context.Context, id int64) (*orders.MainOrder, error) {
	o, err := orders.ScanOrder(t.tx.QueryRow(ctx, `SELECT `+orders.Columns+` FROM main_orders WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFound("order", id)
	}
	return o, err
}

func (t *txRepository) SaveOrderBalance(ctx context.Context, o orders.MainOrder) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE main_orders SET remaining_quantity = $1, status = $2, updated_at = now() WHERE id = $3`,
		o.RemainingQuantity, o.Status, o.ID)
	return err
}

func (t *txRepository) OrderIDOf(ctx context.Context, deliveryID int64) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `SELECT main_order_id FROM delivery_orders WHERE id = $1`, deliveryID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, shared.NotFound("delivery", deliveryID)
	}
	return id, err
}

func (t *txRepository) LockDelivery(ctx context.Context, id int64) (*DeliveryOrder, error) {
	d, err := ScanDelivery(t.tx.QueryRow(ctx, `SELECT `+Columns+` FROM delivery_orders WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFound("delivery", id)
	}
	return d, err
}

func (t *txRepository) Insert(ctx context.Context, d DeliveryOrder) (*DeliveryOrder, error) {
	return ScanDelivery(t.tx.QueryRow(ctx, `
		INSERT INTO delivery_orders (main_order_id, quantity, delivery_date, status)
		VALUES ($1, $2, $3, $4)
		RETURNING `+Columns,
		d.MainOrderID, d.Quantity, d.DeliveryDate.Time, d.Status,
	))
}

func (t *txRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := t.tx.Exec(ctx, `UPDATE delivery_orders SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("delivery", id)
	}
	return nil
}
