// Package order holds the order and quote domain: the entities surrounding
// the costing engine and the service that feeds it consistent snapshots.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/sugarmill/bakeshop/internal/costing"
)

// Sentinel errors for order and quote lookups and the quote lifecycle.
var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrQuoteNotFound         = errors.New("quote not found")
	ErrQuoteNotAccepted      = errors.New("quote must be accepted before conversion")
	ErrQuoteAlreadyConverted = errors.New("quote already converted")
)

// QuoteStatus tracks a quote through its lifecycle.
type QuoteStatus string

// Quote lifecycle states. The only legal path is draft -> accepted ->
// converted; conversion is the point where estimated hours are locked onto
// the created order.
const (
	QuoteDraft     QuoteStatus = "draft"
	QuoteAccepted  QuoteStatus = "accepted"
	QuoteConverted QuoteStatus = "converted"
)

// Quote is a prospective cake order. Its Input is already order-shaped, so
// costing a quote and costing the order it becomes run the same calculation.
type Quote struct {
	ID           string
	CustomerName string
	Status       QuoteStatus
	Input        costing.Input
	CreatedAt    time.Time
}

// CakeOrder is a confirmed order. EstimatedHours is copied from the quote's
// labor breakdown at conversion time and drives production scheduling.
type CakeOrder struct {
	ID             string
	QuoteID        *string
	CustomerName   string
	Input          costing.Input
	EstimatedHours decimal.Decimal
	CreatedAt      time.Time
}

// Snapshots loads consistent read snapshots for costing. Implementations
// must materialize the whole graph in one read transaction so the engine
// never observes a half-written order.
type Snapshots interface {
	// LoadOrder returns the order's calculation input together with the
	// catalog of every entity the order may reference.
	LoadOrder(ctx context.Context, orderID string) (costing.Input, costing.Catalog, error)
	// LoadCatalog returns the catalog snapshot alone, for costing inputs
	// that arrive already assembled (quotes).
	LoadCatalog(ctx context.Context) (costing.Catalog, error)
}

// Quotes defines persistence operations for quotes.
type Quotes interface {
	Get(ctx context.Context, id string) (*Quote, error)
	MarkConverted(ctx context.Context, quoteID, orderID string) error
}

// Orders defines persistence operations for confirmed orders.
type Orders interface {
	Create(ctx context.Context, o *CakeOrder) error
	Get(ctx context.Context, id string) (*CakeOrder, error)
}
