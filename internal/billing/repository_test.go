package billing

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tantu-erp/tantu/internal/deliveries"
	"github.com/tantu-erp/tantu/internal/orders"
	"github.com/tantu-erp/tantu/internal/shared"
)

type mockCustomer struct {
	name        string
	outstanding decimal.Decimal
}

type mockRepository struct {
	orders     map[int64]*orders.MainOrder
	deliveries map[int64]*deliveries.DeliveryOrder
	customers  map[int64]*mockCustomer
	bills      map[int64]*Bill
	payments   []Payment
	keys       map[string]bool
	nextID     int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		orders:     make(map[int64]*orders.MainOrder),
		deliveries: make(map[int64]*deliveries.DeliveryOrder),
		customers:  make(map[int64]*mockCustomer),
		bills:      make(map[int64]*Bill),
		keys:       make(map[string]bool),
		nextID:     1,
	}
}

// seedDelivery adds customer 1, order 1 at rate and a delivered delivery
// of qty, returning the delivery id.
func (m *mockRepository) seedDelivery(qty int, rate string) int64 {
	if _, ok := m.customers[1]; !ok {
		m.customers[1] = &mockCustomer{name: "Rahim Textiles"}
	}
	if _, ok := m.orders[1]; !ok {
		m.orders[1] = &orders.MainOrder{ID: 1, CustomerID: 1, Quantity: 1000, Rate: decimal.RequireFromString(rate), Status: orders.StatusPartiallyDelivered}
	}
	id := m.nextID
	m.nextID++
	m.deliveries[id] = &deliveries.DeliveryOrder{ID: id, MainOrderID: 1, Quantity: qty, Status: deliveries.StatusDelivered}
	return id
}

// WithTx runs fn against a scratch copy and commits it only on success.
func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	scratch := m.clone()
	if err := fn(ctx, &mockTxRepo{mock: scratch}); err != nil {
		return err
	}
	*m = *scratch
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
	for id, cu := range m.customers {
		cp := *cu
		c.customers[id] = &cp
	}
	for id, b := range m.bills {
		cp := *b
		c.bills[id] = &cp
	}
	c.payments = append(c.payments, m.payments...)
	for k := range m.keys {
		c.keys[k] = true
	}
	return c
}

func (m *mockRepository) Get(_ context.Context, id int64) (*Bill, error) {
	b, ok := m.bills[id]
	if !ok {
		return nil, shared.NotFound("bill", id)
	}
	cp := *b
	return &cp, nil
}

func (m *mockRepository) List(_ context.Context, filter ListFilter) ([]Bill, error) {
	out := make([]Bill, 0)
	for _, b := range m.bills {
		if filter.CustomerID != nil && b.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockRepository) ListPayments(_ context.Context, billID int64) ([]Payment, error) {
	out := make([]Payment, 0)
	for _, p := range m.payments {
		if p.BillID == billID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockRepository) MarkOverdue(_ context.Context, today shared.Date) (int64, error) {
	var n int64
	for _, b := range m.bills {
		if b.IsOverdueOn(today) {
			b.Status = StatusOverdue
			n++
		}
	}
	return n, nil
}

type mockTxRepo struct {
	mock *mockRepository
}

func (t *mockTxRepo) LockOrderForDelivery(_ context.Context, deliveryID int64) (*orders.MainOrder, error) {
	d, ok := t.mock.deliveries[deliveryID]
	if !ok {
		return nil, shared.NotFound("delivery", deliveryID)
	}
	o := *t.mock.orders[d.MainOrderID]
	return &o, nil
}

func (t *mockTxRepo) LockDelivery(_ context.Context, id int64) (*deliveries.DeliveryOrder, error) {
	d, ok := t.mock.deliveries[id]
	if !ok {
		return nil, shared.NotFound("delivery", id)
	}
	cp := *d
	return &cp, nil
}

func (t *mockTxRepo) CustomerName(_ context.Context, customerID int64) (string, error) {
	c, ok := t.mock.customers[customerID]
	if !ok {
		return "", shared.NotFound("customer", customerID)
	}
	return c.name, nil
}

func (t *mockTxRepo) InsertBill(_ context.Context, b Bill) (*Bill, error) {
	for _, existing := range t.mock.bills {
		if existing.DeliveryOrderID == b.DeliveryOrderID {
			return nil, ErrAlreadyBilled
		}
	}
	b.ID = t.mock.nextID
	t.mock.nextID++
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	t.mock.bills[b.ID] = &b
	cp := b
	return &cp, nil
}

func (t *mockTxRepo) AttachBill(_ context.Context, deliveryID, billID int64) error {
	id := billID
	t.mock.deliveries[deliveryID].BillID = &id
	return nil
}

func (t *mockTxRepo) LockBill(ctx context.Context, id int64) (*Bill, error) {
	return t.mock.Get(ctx, id)
}

func (t *mockTxRepo) SavePaymentState(_ context.Context, b Bill) error {
	stored := t.mock.bills[b.ID]
	stored.PaidAmount = b.PaidAmount
	stored.DueAmount = b.DueAmount
	stored.Status = b.Status
	return nil
}

func (t *mockTxRepo) InsertPayment(_ context.Context, p Payment) (*Payment, error) {
	p.ID = int64(len(t.mock.payments) + 1)
	t.mock.payments = append(t.mock.payments, p)
	return &p, nil
}

func (t *mockTxRepo) AdjustOutstanding(_ context.Context, customerID int64, delta decimal.Decimal) error {
	c, ok := t.mock.customers[customerID]
	if !ok {
		return shared.NotFound("customer", customerID)
	}
	c.outstanding = c.outstanding.Add(delta)
	return nil
}

func (t *mockTxRepo) ClaimIdempotencyKey(_ context.Context, key string) error {
	if t.mock.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	t.mock.keys[key] = true
	return nil
}
