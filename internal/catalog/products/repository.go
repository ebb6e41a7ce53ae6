package products

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	catalog "github.com/tantu-erp/tantu/internal/catalog/shared"
	"github.com/tantu-erp/tantu/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters catalog.ListFilters) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, filters catalog.ListFilters) ([]Product, error) {
	query := `SELECT id, name, description, created_at FROM products WHERE 1=1`
	args := []interface{}{}
	if filters.Search != "" {
		query += ` AND (name ILIKE $1 OR description ILIKE $1)`
		args = append(args, "%"+filters.Search+"%")
	}
	query += " ORDER BY " + filters.OrderBy("name")

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.db.QueryRow(ctx, `SELECT id, name, description, created_at FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.NotFound("product", id)
	}
	return p, err
}

func (r *repository) Create(ctx context.Context, product Product) (Product, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO products (name, description) VALUES ($1, $2) RETURNING id, created_at`,
		product.Name, product.Description,
	).Scan(&product.ID, &product.CreatedAt)
	if err != nil {
		return Product{}, err
	}
	return product, nil
}
