package mills

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	catalog "github.com/tantu-erp/tantu/internal/catalog/shared"
	"github.com/tantu-erp/tantu/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters catalog.ListFilters) ([]Mill, error)
	Get(ctx context.Context, id int64) (Mill, error)
	Create(ctx context.Context, mill Mill) (Mill, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, filters catalog.ListFilters) ([]Mill, error) {
	query := `SELECT id, name, contact, phone, address, created_at FROM mills WHERE 1=1`
	args := []interface{}{}
	if filters.Search != "" {
		query += ` AND (name ILIKE $1 OR contact ILIKE $1)`
		args = append(args, "%"+filters.Search+"%")
	}
	query += " ORDER BY " + filters.OrderBy("name")

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mills := make([]Mill, 0)
	for rows.Next() {
		var m Mill
		if err := rows.Scan(&m.ID, &m.Name, &m.Contact, &m.Phone, &m.Address, &m.CreatedAt); err != nil {
			return nil, err
		}
		mills = append(mills, m)
	}
	return mills, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Mill, error) {
	query := `SELECT id, name, contact, phone, address, created_at FROM mills WHERE id = $1`
	var m Mill
	err := r.db.QueryRow(ctx, query, id).Scan(&m.ID, &m.Name, &m.Contact, &m.Phone, &m.Address, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Mill{}, shared.NotFound("mill", id)
	}
	return m, err
}

func (r *repository) Create(ctx context.Context, mill Mill) (Mill, error) {
	query := `INSERT INTO mills (name, contact, phone, address) VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query, mill.Name, mill.Contact, mill.Phone, mill.Address).Scan(&mill.ID, &mill.CreatedAt)
	if err != nil {
		return Mill{}, err
	}
	return mill, nil
}
