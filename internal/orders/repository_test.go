package orders

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tantu-erp/tantu/internal/customers"
	"github.com/tantu-erp/tantu/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockDelivery struct {
	quantity int
	status   string
	billed   bool
}

type mockRepository struct {
	orders     map[int64]*MainOrder
	customers  map[int64]*customers.Customer
	products   map[int64]string
	mills      map[int64]string
	deliveries map[int64][]*mockDelivery
	nextID     int64

	txError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		orders:     make(map[int64]*MainOrder),
		customers:  make(map[int64]*customers.Customer),
		products:   make(map[int64]string),
		mills:      make(map[int64]string),
		deliveries: make(map[int64][]*mockDelivery),
		nextID:     1,
	}
}

func (m *mockRepository) seedReferences() {
	m.customers[1] = &customers.Customer{ID: 1, Name: "Sri Lakshmi Textiles"}
	m.products[1] = "Poplin"
	m.mills[1] = "Bannari Amman"
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if m.txError != nil {
		return m.txError
	}
	return fn(ctx, &mockTxRepo{mock: m})
}

func (m *mockRepository) details(o *MainOrder) WithDetails {
	d := WithDetails{MainOrder: *o}
	if c, ok := m.customers[o.CustomerID]; ok {
		d.CustomerName = c.Name
	}
	d.ProductName = m.products[o.ProductID]
	d.MillName = m.mills[o.MillID]
	return d
}

func (m *mockRepository) Get(_ context.Context, id int64) (*WithDetails, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, shared.NotFound("order", id)
	}
	d := m.details(o)
	return &d, nil
}

func (m *mockRepository) List(_ context.Context, filter ListFilter) ([]WithDetails, error) {
	out := make([]WithDetails, 0)
	for _, o := range m.orders {
		if filter.CustomerID != nil && o.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		out = append(out, m.details(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ============================================================================
// MOCK TX REPOSITORY
// ============================================================================

type mockTxRepo struct {
	mock *mockRepository
}

func (t *mockTxRepo) LockOrder(_ context.Context, id int64) (*MainOrder, error) {
	o, ok := t.mock.orders[id]
	if !ok {
		return nil, shared.NotFound("order", id)
	}
	cp := *o
	return &cp, nil
}

func (t *mockTxRepo) LockCustomer(_ context.Context, id int64) (*customers.Customer, error) {
	c, ok := t.mock.customers[id]
	if !ok {
		return nil, shared.NotFound("customer", id)
	}
	cp := *c
	return &cp, nil
}

func (t *mockTxRepo) ProductExists(_ context.Context, id int64) (bool, error) {
	_, ok := t.mock.products[id]
	return ok, nil
}

func (t *mockTxRepo) MillExists(_ context.Context, id int64) (bool, error) {
	_, ok := t.mock.mills[id]
	return ok, nil
}

func (t *mockTxRepo) Insert(_ context.Context, o MainOrder) (*MainOrder, error) {
	o.ID = t.mock.nextID
	t.mock.nextID++
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	t.mock.orders[o.ID] = &o
	cp := o
	return &cp, nil
}

func (t *mockTxRepo) Update(_ context.Context, id int64, updates map[string]interface{}) error {
	o, ok := t.mock.orders[id]
	if !ok {
		return shared.NotFound("order", id)
	}
	for field, value := range updates {
		switch field {
		case "quantity":
			o.Quantity = value.(int)
		case "rate":
			o.Rate = value.(decimal.Decimal)
		case "total_amount":
			o.TotalAmount = value.(decimal.Decimal)
		case "remaining_quantity":
			o.RemainingQuantity = value.(int)
		case "status":
			o.Status = value.(Status)
		}
	}
	o.UpdatedAt = time.Now()
	return nil
}

func (t *mockTxRepo) CountBilledDeliveries(_ context.Context, orderID int64) (int, error) {
	n := 0
	for _, d := range t.mock.deliveries[orderID] {
		if d.billed {
			n++
		}
	}
	return n, nil
}

func (t *mockTxRepo) CancelScheduledDeliveries(_ context.Context, orderID int64) (int, error) {
	restored := 0
	for _, d := range t.mock.deliveries[orderID] {
		if d.status == "scheduled" {
			d.status = "cancelled"
			restored += d.quantity
		}
	}
	return restored, nil
}
