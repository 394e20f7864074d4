package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/sugarmill/bakeshop/internal/costing"
	"github.com/sugarmill/bakeshop/internal/order"
)

// errorResponse is the JSON body for all error replies.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeStatus(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Code: code, Message: message})
}

// writeError maps domain errors to HTTP responses. Data-integrity errors
// from the engine become 422 with the dangling entity named, so a broken
// catalog surfaces as a visible failure instead of a mispriced cake.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, order.ErrQuoteNotFound):
		writeStatus(w, http.StatusNotFound, err.Error())
		return

	case errors.Is(err, order.ErrQuoteNotAccepted),
		errors.Is(err, order.ErrQuoteAlreadyConverted):
		writeStatus(w, http.StatusConflict, err.Error())
		return

	case errors.Is(err, costing.ErrDeliveryZoneRequired):
		writeStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		missingIngredient *costing.MissingIngredientError
		unknownRecipe     *costing.UnknownRecipeError
		unknownTierSize   *costing.UnknownTierSizeError
		unknownTechnique  *costing.UnknownTechniqueError
		unknownRole       *costing.UnknownRoleError
		missingZone       *costing.MissingDeliveryZoneError
	)
	if errors.As(err, &missingIngredient) ||
		errors.As(err, &unknownRecipe) ||
		errors.As(err, &unknownTierSize) ||
		errors.As(err, &unknownTechnique) ||
		errors.As(err, &unknownRole) ||
		errors.As(err, &missingZone) {
		writeStatus(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	zctx.From(r.Context()).Error("request failed", zap.Error(err))
	writeStatus(w, http.StatusInternalServerError, "internal server error")
}
