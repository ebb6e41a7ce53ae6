package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tantu-erp/tantu/internal/shared"
)

func newTestService(t *testing.T) (*Service, *mockRepository) {
	t.Helper()
	repo := newMockRepository()
	repo.seedReferences()
	return NewService(repo, nil), repo
}

func createRequest(qty int, rate string) CreateOrderRequest {
	return CreateOrderRequest{CustomerID: 1, ProductID: 1, MillID: 1, Quantity: qty, Rate: decimal.RequireFromString(rate)}
}

func intPtr(v int) *int { return &v }

func statusPtr(s Status) *Status { return &s }

func TestCreateOrderComputesDerivedFields(t *testing.T) {
	svc, _ := newTestService(t)

	order, err := svc.Create(context.Background(), createRequest(100, "10.00"))
	require.NoError(t, err)
	assert.Equal(t, "1000.00", order.TotalAmount.StringFixed(2))
	assert.Equal(t, 100, order.RemainingQuantity)
	assert.Equal(t, StatusPending, order.Status)
	assert.Equal(t, "Sri Lakshmi Textiles", order.CustomerName)
	assert.Equal(t, "Poplin", order.ProductName)
	assert.Equal(t, "Bannari Amman", order.MillName)
}

func TestCreateOrderMissingReferences(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for name, mutate := range map[string]func(*CreateOrderRequest){
		"customer": func(r *CreateOrderRequest) { r.CustomerID = 9 },
		"product":  func(r *CreateOrderRequest) { r.ProductID = 9 },
		"mill":     func(r *CreateOrderRequest) { r.MillID = 9 },
	} {
		t.Run(name, func(t *testing.T) {
			req := createRequest(10, "5")
			mutate(&req)
			_, err := svc.Create(ctx, req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, shared.ErrNotFound))
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestCreateOrderValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, createRequest(0, "10"))
	assert.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.Create(ctx, createRequest(10, "0"))
	assert.ErrorIs(t, err, ErrInvalidRate)
	_, err = svc.Create(ctx, createRequest(10, "1.234"))
	assert.ErrorIs(t, err, ErrInvalidRate)
	_, err = svc.Create(ctx, createRequest(2000000000, "99999.99"))
	assert.ErrorIs(t, err, ErrTotalTooLarge)
}

func TestCreateOrderCreditLimit(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	repo.customers[1].CreditLimit = decimal.NewFromInt(1000)
	repo.customers[1].OutstandingAmount = decimal.NewFromInt(500)

	_, err := svc.Create(ctx, createRequest(60, "10"))
	require.ErrorIs(t, err, ErrCreditLimitExceeded)
	assert.ErrorIs(t, err, shared.ErrInvariantViolation)
	assert.Empty(t, repo.orders)

	_, err = svc.Create(ctx, createRequest(50, "10"))
	require.NoError(t, err)

	repo.customers[1].CreditLimit = decimal.Zero
	_, err = svc.Create(ctx, createRequest(10000, "10"))
	require.NoError(t, err, "zero credit limit means unlimited")
}

func TestUpdateOrderRecomputesTotals(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	order, err := svc.Create(ctx, createRequest(100, "10.00"))
	require.NoError(t, err)

	// 40 already out on deliveries.
	repo.orders[order.ID].RemainingQuantity = 60
	repo.orders[order.ID].Status = StatusPartiallyDelivered

	rate := decimal.RequireFromString("12.50")
	updated, err := svc.Update(ctx, order.ID, UpdateOrderRequest{Quantity: intPtr(150), Rate: &rate})
	require.NoError(t, err)
	assert.Equal(t, 150, updated.Quantity)
	assert.Equal(t, 110, updated.RemainingQuantity)
	assert.Equal(t, "1875.00", updated.TotalAmount.StringFixed(2))
	assert.Equal(t, StatusPartiallyDelivered, updated.Status)

	updated, err = svc.Update(ctx, order.ID, UpdateOrderRequest{Quantity: intPtr(40), Status: statusPtr(StatusDelivered)})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.RemainingQuantity)
	assert.Equal(t, StatusDelivered, updated.Status)
}

func TestUpdateOrderRejectsInvariantBreaks(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	order, err := svc.Create(ctx, createRequest(100, "10.00"))
	require.NoError(t, err)
	repo.orders[order.ID].RemainingQuantity = 60
	repo.orders[order.ID].Status = StatusPartiallyDelivered

	tests := []struct {
		name string
		req  UpdateOrderRequest
		want error
	}{
		{"quantity below delivered", UpdateOrderRequest{Quantity: intPtr(39)}, ErrQuantityBelowDelivered},
		{"remaining above quantity", UpdateOrderRequest{RemainingQuantity: intPtr(101)}, ErrRemainingOutOfRange},
		{"remaining negative", UpdateOrderRequest{RemainingQuantity: intPtr(-1)}, ErrRemainingOutOfRange},
		{"remaining inconsistent", UpdateOrderRequest{RemainingQuantity: intPtr(100)}, ErrRemainingMismatch},
		{"delivered with remaining", UpdateOrderRequest{Status: statusPtr(StatusDelivered)}, ErrDeliveredWithRemaining},
		{"pending with deliveries", UpdateOrderRequest{Status: statusPtr(StatusPending)}, ErrStatusMismatch},
		{"unknown status", UpdateOrderRequest{Status: statusPtr("lost")}, shared.ErrValidation},
		{"zero quantity", UpdateOrderRequest{Quantity: intPtr(0)}, ErrInvalidQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(ctx, order.ID, tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 60, repo.orders[order.ID].RemainingQuantity)
		})
	}
}

func TestUpdateConsistentRemainingAccepted(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	order, err := svc.Create(ctx, createRequest(10, "1"))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, order.ID, UpdateOrderRequest{Quantity: intPtr(20), RemainingQuantity: intPtr(20)})
	require.NoError(t, err)
	assert.Equal(t, 20, updated.RemainingQuantity)
	assert.Equal(t, "20.00", updated.TotalAmount.StringFixed(2))
}

func TestCancelOrder(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	order, err := svc.Create(ctx, createRequest(100, "10.00"))
	require.NoError(t, err)

	repo.orders[order.ID].RemainingQuantity = 50
	repo.orders[order.ID].Status = StatusPartiallyDelivered
	repo.deliveries[order.ID] = []*mockDelivery{
		{quantity: 20, status: "delivered"},
		{quantity: 30, status: "scheduled"},
	}

	cancelled, err := svc.Cancel(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, 80, cancelled.RemainingQuantity)
	assert.Equal(t, "cancelled", repo.deliveries[order.ID][1].status)

	_, err = svc.Cancel(ctx, order.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)

	_, err = svc.Update(ctx, order.ID, UpdateOrderRequest{Quantity: intPtr(120)})
	assert.ErrorIs(t, err, ErrOrderCancelled)
}

func TestCancelOrderWithBilledDelivery(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	order, err := svc.Create(ctx, createRequest(100, "10.00"))
	require.NoError(t, err)
	repo.orders[order.ID].RemainingQuantity = 90
	repo.orders[order.ID].Status = StatusPartiallyDelivered
	repo.deliveries[order.ID] = []*mockDelivery{{quantity: 10, status: "delivered", billed: true}}

	_, err = svc.Update(ctx, order.ID, UpdateOrderRequest{Status: statusPtr(StatusCancelled)})
	require.ErrorIs(t, err, ErrOrderBilled)
	assert.Equal(t, StatusPartiallyDelivered, repo.orders[order.ID].Status)
}

func TestListOrdersFilters(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	repo.customers[2] = repo.customers[1]

	_, err := svc.Create(ctx, createRequest(1, "1"))
	require.NoError(t, err)
	req := createRequest(2, "1")
	req.CustomerID = 2
	_, err = svc.Create(ctx, req)
	require.NoError(t, err)
	_, err = svc.Create(ctx, createRequest(3, "1"))
	require.NoError(t, err)

	customerID := int64(1)
	orders, err := svc.List(ctx, ListFilter{CustomerID: &customerID})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Less(t, orders[0].ID, orders[1].ID)

	_, err = svc.List(ctx, ListFilter{Status: statusPtr("bogus")})
	assert.ErrorIs(t, err, shared.ErrValidation)
}
