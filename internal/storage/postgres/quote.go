package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sugarmill/bakeshop/internal/order"
)

const (
	getQuoteSQL = `SELECT id, customer_name, status, input, created_at
		FROM quotes WHERE id = $1`

	createQuoteSQL = `INSERT INTO quotes (id, customer_name, status, input)
		VALUES ($1, $2, $3, $4)`

	markQuoteConvertedSQL = `UPDATE quotes SET status = 'converted', order_id = $2
		WHERE id = $1 AND status = 'accepted'`
)

var _ order.Quotes = (*QuoteRepository)(nil)

// QuoteRepository implements order.Quotes backed by PostgreSQL. A quote's
// order-shaped input lives in a JSONB column until conversion normalizes it
// into the order tables.
type QuoteRepository struct {
	pool *pgxpool.Pool
}

// NewQuoteRepository returns a QuoteRepository that uses the given pool.
func NewQuoteRepository(pool *pgxpool.Pool) *QuoteRepository {
	return &QuoteRepository{pool: pool}
}

// Get returns one quote by ID.
func (r *QuoteRepository) Get(ctx context.Context, id string) (*order.Quote, error) {
	rows, err := r.pool.Query(ctx, getQuoteSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting quote %q: %w", id, err)
	}

	q, err := pgx.CollectExactlyOneRow(rows, scanQuote)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrQuoteNotFound
		}
		return nil, fmt.Errorf("getting quote %q: %w", id, err)
	}
	return &q, nil
}

// Create persists a new quote.
func (r *QuoteRepository) Create(ctx context.Context, q *order.Quote) error {
	inputJSON, err := json.Marshal(q.Input)
	if err != nil {
		return fmt.Errorf("marshaling quote input: %w", err)
	}

	if _, err := r.pool.Exec(ctx, createQuoteSQL, q.ID, q.CustomerName, string(q.Status), inputJSON); err != nil {
		return fmt.Errorf("creating quote %q: %w", q.ID, err)
	}
	return nil
}

// MarkConverted flips an accepted quote to converted and records the order
// it became. The status guard in the UPDATE makes conversion idempotent at
// the storage level: a concurrent second conversion matches zero rows.
func (r *QuoteRepository) MarkConverted(ctx context.Context, quoteID, orderID string) error {
	tag, err := r.pool.Exec(ctx, markQuoteConvertedSQL, quoteID, orderID)
	if err != nil {
		return fmt.Errorf("marking quote %q converted: %w", quoteID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrQuoteAlreadyConverted
	}
	return nil
}

func scanQuote(row pgx.CollectableRow) (order.Quote, error) {
	var (
		q         order.Quote
		status    string
		inputJSON []byte
	)
	if err := row.Scan(&q.ID, &q.CustomerName, &status, &inputJSON, &q.CreatedAt); err != nil {
		return q, err
	}
	q.Status = order.QuoteStatus(status)

	if err := json.Unmarshal(inputJSON, &q.Input); err != nil {
		return q, fmt.Errorf("unmarshaling quote %q input: %w", q.ID, err)
	}
	return q, nil
}
