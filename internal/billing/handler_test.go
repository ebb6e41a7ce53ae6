package billing

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(repo *mockRepository, renderer Renderer) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := newTestService(repo)
	if renderer != nil {
		svc.SetRenderer(renderer)
	}
	r := chi.NewRouter()
	NewHandler(logger, svc).MountRoutes(r)
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestBillHandlers(t *testing.T) {
	repo := newMockRepository()
	deliveryID := repo.seedDelivery(40, "10.00")
	r := newTestRouter(repo, nil)

	rec := serve(r, httptest.NewRequest(http.MethodPost, "/deliveries/1/bill", nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"amount":"400"`)
	assert.Contains(t, rec.Body.String(), `"due_date":"2024-06-09"`)
	require.NotNil(t, repo.deliveries[deliveryID].BillID)

	rec = serve(r, httptest.NewRequest(http.MethodPost, "/deliveries/1/bill", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/bills/2/payments", strings.NewReader(`{"amount":"250","note":"cash"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", "abc")
	rec = serve(r, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"partially_paid"`)

	req = httptest.NewRequest(http.MethodPost, "/bills/2/payments", strings.NewReader(`{"amount":"10"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", "abc")
	assert.Equal(t, http.StatusConflict, serve(r, req).Code)

	form := url.Values{"amount": {"500"}}
	req = httptest.NewRequest(http.MethodPost, "/bills/2/payments", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusUnprocessableEntity, serve(r, req).Code)

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/bills/2/payments", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"note":"cash"`)

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/bills?customer_id=1&status=partially_paid", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"customer_name":"Rahim Textiles"`)

	assert.Equal(t, http.StatusBadRequest, serve(r, httptest.NewRequest(http.MethodGet, "/bills?customer_id=x", nil)).Code)
	assert.Equal(t, http.StatusNotFound, serve(r, httptest.NewRequest(http.MethodGet, "/bills/99", nil)).Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(r, httptest.NewRequest(http.MethodGet, "/bills/2/pdf", nil)).Code)
}

func TestOverdueSweepHandler(t *testing.T) {
	repo := newMockRepository()
	id := repo.seedDelivery(1, "1")
	svc := newTestService(repo)
	_, err := svc.IssueBill(context.Background(), id, IssueBillRequest{})
	require.NoError(t, err)
	r := newTestRouter(repo, nil)

	rec := serve(r, httptest.NewRequest(http.MethodPost, "/bills/overdue-sweep?today=2024-12-01", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"marked":1}`, rec.Body.String())

	rec = serve(r, httptest.NewRequest(http.MethodPost, "/bills/overdue-sweep?today=2024-12-01", nil))
	assert.JSONEq(t, `{"marked":0}`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, serve(r, httptest.NewRequest(http.MethodPost, "/bills/overdue-sweep?today=soon", nil)).Code)
}

func TestBillPDFHandler(t *testing.T) {
	repo := newMockRepository()
	repo.seedDelivery(40, "10")
	r := newTestRouter(repo, &fakeRenderer{})
	require.Equal(t, http.StatusCreated, serve(r, httptest.NewRequest(http.MethodPost, "/deliveries/1/bill", nil)).Code)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/bills/2/pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.4", rec.Body.String())
}
