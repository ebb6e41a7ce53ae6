package deliveries

import (
	"context"
	"sort"
	"time"

	"github.com/tantu-erp/tantu/internal/orders"
	"github.com/tantu-erp/tantu/internal/shared"
)

type mockRepository struct {
	orders     map[int64]*orders.MainOrder
	deliveries map[int64]*DeliveryOrder
	nextID     int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		orders:     make(map[int64]*orders.MainOrder),
		deliveries: make(map[int64]*DeliveryOrder),
		nextID:     1,
	}
}

func (m *mockRepository) addOrder(id int64, quantity int) {
	m.orders[id] = &orders.MainOrder{ID: id, Quantity: quantity, RemainingQuantity: quantity, Status: orders.StatusPending}
}

// WithTx runs fn against a scratch copy and commits it only on success.
func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	scratch := m.clone()
	if err := fn(ctx, &mockTxRepo{mock: scratch}); err != nil {
		return err
	}
	m.orders, m.deliveries, m.nextID = scratch.orders, scratch.deliveries, scratch.nextID
	return nil
}

func (m *mockRepository) clone() *mockRepository {
	c := newMockRepository()
	c.nextID = m.nextID
	for id, o := range m.orders {
		cp := *o
		c.orders[id] = &cp
	}
	for id, d := range m.deliveries {
		cp := *d
		c.deliveries[id] = &cp
	}
	return c
}

func (m *mockRepository) Get(_ context.Context, id int64) (*DeliveryOrder, error) {
	d, ok := m.deliveries[id]
	if !ok {
		return nil, shared.NotFound("delivery", id)
	}
	cp := *d
	return &cp, nil
}

func (m *mockRepository) ListByOrder(_ context.Context, mainOrderID int64) ([]DeliveryOrder, error) {
	out := make([]DeliveryOrder, 0)
	for _, d := range m.deliveries {
		if d.MainOrderID == mainOrderID {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockRepository) OrderExists(_ context.Context, mainOrderID int64) (bool, error) {
	_, ok := m.orders[mainOrderID]
	return ok, nil
}

type mockTxRepo struct {
	mock *mockRepository
}

func (t *mockTxRepo) LockOrder(_ context.Context, id int64) (*orders.MainOrder, error) {
	o, ok := t.mock.orders[id]
	if !ok {
		return nil, shared.NotFound("order", id)
	}
	cp := *o
	return &cp, nil
}

func (t *mockTxRepo) SaveOrderBalance(_ context.Context, o orders.MainOrder) error {
	stored := t.mock.orders[o.ID]
	stored.RemainingQuantity = o.RemainingQuantity
	stored.Status = o.Status
	return nil
}

func (t *mockTxRepo) OrderIDOf(_ context.Context, deliveryID int64) (int64, error) {
	d, ok := t.mock.deliveries[deliveryID]
	if !ok {
		return 0, shared.NotFound("delivery", deliveryID)
	}
	return d.MainOrderID, nil
}

func (t *mockTxRepo) LockDelivery(ctx context.Context, id int64) (*DeliveryOrder, error) {
	return t.mock.Get(ctx, id)
}

func (t *mockTxRepo) Insert(_ context.Context, d DeliveryOrder) (*DeliveryOrder, error) {
	d.ID = t.mock.nextID
	t.mock.nextID++
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	t.mock.deliveries[d.ID] = &d
	cp := d
	return &cp, nil
}

func (t *mockTxRepo) UpdateStatus(_ context.Context, id int64, status Status) error {
	d, ok := t.mock.deliveries[id]
	if !ok {
		return shared.NotFound("delivery", id)
	}
	d.Status = status
	return nil
}
