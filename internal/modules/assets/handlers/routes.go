package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all asset catalog routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/assets", func(r chi.Router) {
		r.Get("/", h.HandleListAssets)               // List tracked fund assets
		r.Get("/{id}/holdings", h.HandleGetHoldings) // Current holdings snapshot
	})
}
