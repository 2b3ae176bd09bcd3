package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all holdings import routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reconcile", func(r chi.Router) {
		r.Post("/preview", h.HandlePreview) // Upload spreadsheet, get mapping preview
		r.Post("/confirm", h.HandleConfirm) // Apply confirmed mappings
	})
}
