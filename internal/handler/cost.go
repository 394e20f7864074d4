package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sugarmill/bakeshop/internal/costing"
)

// CostOrder handles GET /orders/{id}/cost.
func (h *Handler) CostOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	res, err := h.service.CostOrder(r.Context(), orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeResult(w, res)
}

// CostQuote handles POST /quotes/cost. The body is an order-shaped costing
// input; the response is identical in shape to an order costing.
func (h *Handler) CostQuote(w http.ResponseWriter, r *http.Request) {
	var in costing.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeStatus(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.service.CostQuote(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeResult(w, res)
}

// convertResponse is the body returned by a successful quote conversion.
type convertResponse struct {
	OrderID        string `json:"orderId"`
	QuoteID        string `json:"quoteId"`
	EstimatedHours string `json:"estimatedHours"`
	FinalPrice     string `json:"finalPrice"`
}

// ConvertQuote handles POST /quotes/{id}/convert.
func (h *Handler) ConvertQuote(w http.ResponseWriter, r *http.Request) {
	quoteID := chi.URLParam(r, "id")

	o, res, err := h.service.ConvertQuote(r.Context(), quoteID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(convertResponse{
		OrderID:        o.ID,
		QuoteID:        quoteID,
		EstimatedHours: o.EstimatedHours.String(),
		FinalPrice:     res.FinalPrice.StringFixed(2),
	})
}
