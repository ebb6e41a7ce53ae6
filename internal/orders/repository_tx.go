package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/tantu-erp/tantu/internal/customers"
	"github.com/tantu-erp/tantu/internal/shared"
)

// LockOrder selects the order FOR UPDATE.
func (t *txRepository) LockOrder(ctx context.Context, id int64) (*MainOrder, error) {
	o, err := ScanOrder(t.tx.QueryRow(ctx, `SELECT `+Columns+` FROM main_orders WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFound("order", id)
	}
	return o, err
}

// LockCustomer selects the customer FOR SHARE so its outstanding balance
// cannot move while an order is checked against the credit limit.
func (t *txRepository) LockCustomer(ctx context.Context, id int64) (*customers.Customer, error) {
	var c customers.Customer
	err := t.tx.QueryRow(ctx, `
		SELECT id, name, email, phone, address, credit_limit, outstanding_amount, created_at
		FROM customers WHERE id = $1 FOR SHARE`, id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreditLimit, &c.OutstandingAmount, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFound("customer", id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (t *txRepository) ProductExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (t *txRepository) MillExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM mills WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// Insert creates a main order.
func (t *txRepository) Insert(ctx context.Context, o MainOrder) (*MainOrder, error) {
	query := `
		INSERT INTO main_orders (
			customer_id, product_id, mill_id, quantity, rate, total_amount,
			remaining_quantity, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + Columns
	return ScanOrder(t.tx.QueryRow(ctx, query,
		o.CustomerID, o.ProductID, o.MillID, o.Quantity, o.Rate, o.TotalAmount,
		o.RemainingQuantity, o.Status,
	))
}

// Update updates main order fields.
func (t *txRepository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	var setClauses []string
	var args []interface{}
	argPos := 1

	for field, value := range updates {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field, argPos))
		args = append(args, value)
		argPos++
	}
	setClauses = append(setClauses, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE main_orders SET %s WHERE id = $%d", strings.Join(setClauses, ", "), argPos)
	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("order", id)
	}
	return nil
}

func (t *txRepository) CountBilledDeliveries(ctx context.Context, orderID int64) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM delivery_orders WHERE main_order_id = $1 AND bill_id IS NOT NULL`, orderID,
	).Scan(&n)
	return n, err
}

// CancelScheduledDeliveries cancels deliveries not yet handed over and
// returns their total quantity.
func (t *txRepository) CancelScheduledDeliveries(ctx context.Context, orderID int64) (int, error) {
	var restored int
	err := t.tx.QueryRow(ctx, `
		WITH cancelled AS (
			UPDATE delivery_orders SET status = 'cancelled', updated_at = now()
			WHERE main_order_id = $1 AND status = 'scheduled'
			RETURNING quantity
		)
		SELECT COALESCE(SUM(quantity), 0) FROM cancelled`, orderID,
	).Scan(&restored)
	return restored, err
}
