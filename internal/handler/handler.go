// Package handler exposes the costing service over HTTP. The handlers are
// deliberately thin: decode, delegate, encode. All pricing semantics live in
// the costing engine; all persistence in the repositories.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sugarmill/bakeshop/internal/order"
)

// Handler serves the costing API.
type Handler struct {
	service *order.Service
}

// NewHandler constructs a Handler around the order service.
func NewHandler(service *order.Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the API routes. The conversion endpoint mutates state and
// sits behind the API key middleware; costing reads do not.
func (h *Handler) Routes(authn func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/orders/{id}/cost", h.CostOrder)
	r.Post("/quotes/cost", h.CostQuote)

	r.Group(func(r chi.Router) {
		r.Use(authn)
		r.Post("/quotes/{id}/convert", h.ConvertQuote)
	})

	return r
}
