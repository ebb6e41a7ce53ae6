package deliveries

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tantu-erp/tantu/internal/platform/httpx"
)

// Handler handles HTTP requests for deliveries.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler creates a new handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes mounts delivery routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/orders/{id}/deliveries", h.ListByOrder)
	r.Post("/orders/{id}/deliveries", h.Record)
	r.Get("/deliveries/{id}", h.Show)
	r.Post("/deliveries/{id}/deliver", h.MarkDelivered)
	r.Post("/deliveries/{id}/cancel", h.Cancel)
}

func (h *Handler) ListByOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := httpx.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.ListByOrder(r.Context(), orderID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	orderID, err := httpx.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req RecordDeliveryRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	d, err := h.service.Record(r.Context(), orderID, req)
	if err != nil {
		h.logger.Warn("record delivery rejected", "error", err, "order_id", orderID)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, d)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	d, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	d, err := h.service.MarkDelivered(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	d, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		h.logger.Warn("cancel delivery rejected", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}
