package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tantu-erp/tantu/internal/customers"
	"github.com/tantu-erp/tantu/internal/platform/db"
	"github.com/tantu-erp/tantu/internal/shared"
)

// Repository defines the interface for main order persistence.
type Repository interface {
	// Read operations
	Get(ctx context.Context, id int64) (*WithDetails, error)
	List(ctx context.Context, filter ListFilter) ([]WithDetails, error)

	// Write operations (transactional)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes transactional operations. Lock methods take row
// locks held until the transaction ends.
type TxRepository interface {
	LockOrder(ctx context.Context, id int64) (*MainOrder, error)
	LockCustomer(ctx context.Context, id int64) (*customers.Customer, error)
	ProductExists(ctx context.Context, id int64) (bool, error)
	MillExists(ctx context.Context, id int64) (bool, error)
	Insert(ctx context.Context, order MainOrder) (*MainOrder, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	CountBilledDeliveries(ctx context.Context, orderID int64) (int, error)
	CancelScheduledDeliveries(ctx context.Context, orderID int64) (int, error)
}

// repository implements Repository using pgxpool.
type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// txRepository implements TxRepository.
type txRepository struct {
	tx pgx.Tx
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const detailsQuery = `
	SELECT o.id, o.customer_id, o.product_id, o.mill_id, o.quantity, o.rate, o.total_amount,
	       o.remaining_quantity, o.status, o.created_at, o.updated_at,
	       c.name, p.name, m.name
	FROM main_orders o
	JOIN customers c ON c.id = o.customer_id
	JOIN products p ON p.id = o.product_id
	JOIN mills m ON m.id = o.mill_id`

func scanDetails(row pgx.Row) (*WithDetails, error) {
	var d WithDetails
	err := row.Scan(
		&d.ID, &d.CustomerID, &d.ProductID, &d.MillID, &d.Quantity, &d.Rate, &d.TotalAmount,
		&d.RemainingQuantity, &d.Status, &d.CreatedAt, &d.UpdatedAt,
		&d.CustomerName, &d.ProductName, &d.MillName,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Get retrieves an order joined with its reference data.
func (r *repository) Get(ctx context.Context, id int64) (*WithDetails, error) {
	d, err := scanDetails(r.pool.QueryRow(ctx, detailsQuery+` WHERE o.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFound("order", id)
	}
	return d, err
}

// List returns orders oldest first.
func (r *repository) List(ctx context.Context, filter ListFilter) ([]WithDetails, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if filter.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("o.customer_id = $%d", argPos))
		args = append(args, *filter.CustomerID)
		argPos++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argPos))
		args = append(args, *filter.Status)
		argPos++
	}

	query := detailsQuery
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY o.created_at, o.id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]WithDetails, 0)
	for rows.Next() {
		d, err := scanDetails(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *d)
	}
	return orders, rows.Err()
}
