package shared

import (
	"context"
	"errors"
	"time"

	"github.com/tantu-erp/tantu/internal/platform/db"
)

// IdempotencyStore persists processed request keys.
type IdempotencyStore struct {
	q db.Querier
}

// NewIdempotencyStore constructs the store on a pool or transaction.
func NewIdempotencyStore(q db.Querier) *IdempotencyStore {
	return &IdempotencyStore{q: q}
}

// WithQuerier returns a store bound to q, typically a running transaction,
// so that the key is released when the transaction rolls back.
func (s *IdempotencyStore) WithQuerier(q db.Querier) *IdempotencyStore {
	return &IdempotencyStore{q: q}
}

// ErrIdempotencyConflict indicates a duplicate key.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// CheckAndInsert ensures key uniqueness per module.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, key, module string) error {
	if s == nil || s.q == nil {
		return errors.New("idempotency store not initialised")
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	if module == "" {
		return errors.New("idempotency module required")
	}
	_, err := s.q.Exec(ctx, `INSERT INTO idempotency_keys (key, module, created_at) VALUES ($1, $2, $3)`, module+":"+key, module, time.Now())
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrIdempotencyConflict
		}
		return err
	}
	return nil
}

// Cleanup removes entries older than retention.
func (s *IdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	if s == nil || s.q == nil {
		return 0, nil
	}
	cutoff := time.Now().Add(-olderThan)
	tag, err := s.q.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
