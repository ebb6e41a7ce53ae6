package billing

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/tantu-erp/tantu/internal/platform/httpx"
	"github.com/tantu-erp/tantu/internal/shared"
)

// Handler handles HTTP requests for bills.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler creates a new handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes mounts billing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/deliveries/{id}/bill", h.Issue)
	r.Get("/bills", h.List)
	r.Post("/bills/overdue-sweep", h.OverdueSweep)
	r.Get("/bills/{id}", h.Show)
	r.Get("/bills/{id}/payments", h.ListPayments)
	r.Post("/bills/{id}/payments", h.RecordPayment)
	r.Get("/bills/{id}/pdf", h.PDF)
}

func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	deliveryID, err := httpx.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req IssueBillRequest
	if r.ContentLength != 0 {
		if err := httpx.Decode(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	bill, err := h.service.IssueBill(r.Context(), deliveryID, req)
	if err != nil {
		h.logger.Warn("issue bill rejected", "error", err, "delivery_id", deliveryID)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, bill)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var filter ListFilter
	if raw := r.URL.Query().Get("customer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.RespondError(w, shared.Validation("invalid customer_id %q", raw))
			return
		}
		filter.CustomerID = &id
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := Status(raw)
		filter.Status = &status
	}
	bills, err := h.service.List(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bills)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	bill, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bill)
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	payments, err := h.service.ListPayments(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payments)
}

// RecordPayment handles POST /bills/{id}/payments. The Idempotency-Key
// header takes precedence over the body field.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req RecordPaymentRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		req.IdempotencyKey = key
	}
	result, err := h.service.RecordPayment(r.Context(), id, req)
	if err != nil {
		h.logger.Warn("record payment rejected", "error", err, "bill_id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	pdf, err := h.service.RenderBill(r.Context(), id)
	if errors.Is(err, ErrRendererUnavailable) {
		h.logger.Warn("bill pdf unavailable", "error", err, "bill_id", id)
		httpx.Problem(w, http.StatusServiceUnavailable, "Renderer Unavailable", "bill PDF rendering is not available")
		return
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=bill-"+strconv.FormatInt(id, 10)+".pdf")
	_, _ = w.Write(pdf)
}

// OverdueSweep handles POST /bills/overdue-sweep. An optional ?today=
// overrides the server date.
func (h *Handler) OverdueSweep(w http.ResponseWriter, r *http.Request) {
	var today shared.Date
	if raw := r.URL.Query().Get("today"); raw != "" {
		parsed, err := shared.ParseDate(raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		today = parsed
	}
	n, err := h.service.MarkOverdue(r.Context(), today)
	if err != nil {
		h.logger.Error("overdue sweep failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"marked": n})
}
