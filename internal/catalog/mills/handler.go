package mills

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	catalog "github.com/tantu-erp/tantu/internal/catalog/shared"
	"github.com/tantu-erp/tantu/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/mills", h.List)
	r.Post("/mills", h.Create)
	r.Get("/mills/{id}", h.Show)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	mills, err := h.service.List(r.Context(), catalog.FiltersFromQuery(r.URL.Query()))
	if err != nil {
		h.logger.Error("list mills failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, mills)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	mill, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, mill)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateMillRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	mill, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create mill failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, mill)
}
