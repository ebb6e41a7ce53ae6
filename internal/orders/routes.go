package orders

import "github.com/go-chi/chi/v5"

// MountRoutes mounts order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/orders", h.List)
	r.Post("/orders", h.Create)
	r.Get("/orders/{id}", h.Show)
	r.Patch("/orders/{id}", h.Update)
	r.Post("/orders/{id}/cancel", h.Cancel)
	r.Get("/customers/{id}/orders", h.ListForCustomer)
}
