// Package dbtest opens the Postgres database named by PG_DSN for integration
// tests and seeds the reference rows an order needs.
package dbtest

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tantu-erp/tantu/internal/platform/db"
)

// migrateLockID serialises schema setup across test packages sharing one database.
const migrateLockID = 7_261_001

// Open returns a migrated pool, or skips the test when PG_DSN is unset.
func Open(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set; skipping postgres integration test")
	}
	ctx := context.Background()
	pool, err := db.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	conn, err := pool.Acquire(ctx)
	require.NoError(t, err)
	defer conn.Release()
	_, err = conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, migrateLockID)
	require.NoError(t, err)
	defer func() { _, _ = conn.Exec(ctx, `SELECT pg_advisory_unlock($1)`, migrateLockID) }()
	require.NoError(t, db.Migrate(ctx, pool))
	return pool
}

// Order is the set of rows SeedOrder inserted.
type Order struct {
	CustomerID int64
	ProductID  int64
	MillID     int64
	OrderID    int64
}

// SeedOrder inserts a customer, product and mill plus a pending order of qty
// units at rate.
func SeedOrder(t *testing.T, pool *pgxpool.Pool, qty int, rate string) Order {
	t.Helper()
	ctx := context.Background()
	r := decimal.RequireFromString(rate)
	var o Order
	require.NoError(t, pool.QueryRow(ctx, `
		INSERT INTO customers (name, email, phone, address)
		VALUES ('Rahim Textiles', 'rahim@example.com', '01700000000', 'Narayanganj')
		RETURNING id`).Scan(&o.CustomerID))
	require.NoError(t, pool.QueryRow(ctx, `
		INSERT INTO products (name) VALUES ('Cotton Twill') RETURNING id`).Scan(&o.ProductID))
	require.NoError(t, pool.QueryRow(ctx, `
		INSERT INTO mills (name, contact, phone, address)
		VALUES ('Padma Mills', 'Karim', '01800000000', 'Gazipur')
		RETURNING id`).Scan(&o.MillID))
	require.NoError(t, pool.QueryRow(ctx, `
		INSERT INTO main_orders (customer_id, product_id, mill_id, quantity, rate, total_amount, remaining_quantity, status)
		VALUES ($1, $2, $3, $4, $5, $6, $4, 'pending')
		RETURNING id`,
		o.CustomerID, o.ProductID, o.MillID, qty, r, r.Mul(decimal.NewFromInt(int64(qty))),
	).Scan(&o.OrderID))
	return o
}
