package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tantu-erp/tantu/internal/shared"
)

// Repository defines customer persistence.
type Repository interface {
	Get(ctx context.Context, id int64) (*Customer, error)
	List(ctx context.Context) ([]Customer, error)
	Create(ctx context.Context, customer Customer) (*Customer, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const selectColumns = `id, name, email, phone, address, credit_limit, outstanding_amount, created_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreditLimit, &c.OutstandingAmount, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM customers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFound("customer", id)
	}
	return c, err
}

func (r *repository) List(ctx context.Context) ([]Customer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM customers ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	customers := make([]Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

func (r *repository) Create(ctx context.Context, customer Customer) (*Customer, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO customers (name, email, phone, address, credit_limit, outstanding_amount)
		VALUES ($1, $2, $3, $4, $5, 0)
		RETURNING `+selectColumns,
		customer.Name, customer.Email, customer.Phone, customer.Address, customer.CreditLimit,
	)
	return scanCustomer(row)
}
