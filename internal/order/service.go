package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/sugarmill/bakeshop/internal/costing"
)

// Service is the costing entry point for external callers: it pairs the
// pure engine with snapshot loading and owns the quote-to-order workflow.
type Service struct {
	engine    *costing.Engine
	snapshots Snapshots
	quotes    Quotes
	orders    Orders
}

// NewService creates a Service with the required dependencies.
func NewService(engine *costing.Engine, snapshots Snapshots, quotes Quotes, orders Orders) *Service {
	return &Service{
		engine:    engine,
		snapshots: snapshots,
		quotes:    quotes,
		orders:    orders,
	}
}

// CostOrder loads one order's full graph and returns its costing result.
// Pure read: no writes, no caching of the result.
func (s *Service) CostOrder(ctx context.Context, orderID string) (*costing.Result, error) {
	in, cat, err := s.snapshots.LoadOrder(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "load order snapshot")
	}
	return s.engine.Cost(in, cat)
}

// CostQuote costs an already-assembled, order-shaped input against a fresh
// catalog snapshot. Used for live quote pricing and at conversion time;
// an identical input always yields an identical result.
func (s *Service) CostQuote(ctx context.Context, in costing.Input) (*costing.Result, error) {
	cat, err := s.snapshots.LoadCatalog(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load catalog snapshot")
	}
	return s.engine.Cost(in, cat)
}

// ConvertQuote turns an accepted quote into a cake order. The quote is
// costed once more and the total labor hours from its breakdown are locked
// onto the new order as EstimatedHours. Returns the created order alongside
// the costing result that produced it.
func (s *Service) ConvertQuote(ctx context.Context, quoteID string) (*CakeOrder, *costing.Result, error) {
	q, err := s.quotes.Get(ctx, quoteID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "get quote")
	}

	switch q.Status {
	case QuoteConverted:
		return nil, nil, ErrQuoteAlreadyConverted
	case QuoteAccepted:
	default:
		return nil, nil, ErrQuoteNotAccepted
	}

	res, err := s.CostQuote(ctx, q.Input)
	if err != nil {
		return nil, nil, errors.Wrap(err, "cost quote")
	}

	o := &CakeOrder{
		ID:             uuid.New().String(),
		QuoteID:        &q.ID,
		CustomerName:   q.CustomerName,
		Input:          q.Input,
		EstimatedHours: res.EstimatedHours(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, nil, errors.Wrap(err, "create order")
	}
	if err := s.quotes.MarkConverted(ctx, q.ID, o.ID); err != nil {
		return nil, nil, errors.Wrap(err, "mark quote converted")
	}

	return o, res, nil
}
