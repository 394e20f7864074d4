package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sugarmill/bakeshop/internal/costing"
	"github.com/sugarmill/bakeshop/internal/order"
)

const (
	getOrderSQL = `SELECT id, quote_id, customer_name, is_delivery, delivery_zone_id, delivery_distance,
		baker_hours, assistant_hours, markup_percent, discount_type, discount_value,
		custom_topper_fee, estimated_hours, created_at
		FROM cake_orders WHERE id = $1`

	listOrderTiersSQL = `SELECT tier_index, tier_size_id,
		batter_recipe_id, filling_recipe_id, frosting_recipe_id,
		batter_multiplier, filling_multiplier, frosting_multiplier
		FROM order_tiers WHERE order_id = $1 ORDER BY tier_index`

	listOrderDecorationsSQL = `SELECT technique_id, quantity, unit_override, tier_indices
		FROM order_decorations WHERE order_id = $1 ORDER BY id`

	listOrderItemsSQL = `SELECT target_id, product_type_id, quantity, unit_price
		FROM order_items WHERE order_id = $1 ORDER BY id`

	createOrderSQL = `INSERT INTO cake_orders (id, quote_id, customer_name, is_delivery, delivery_zone_id,
		delivery_distance, baker_hours, assistant_hours, markup_percent, discount_type,
		discount_value, custom_topper_fee, estimated_hours)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	createOrderTierSQL = `INSERT INTO order_tiers (order_id, tier_index, tier_size_id,
		batter_recipe_id, filling_recipe_id, frosting_recipe_id,
		batter_multiplier, filling_multiplier, frosting_multiplier)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	createOrderDecorationSQL = `INSERT INTO order_decorations (order_id, technique_id, quantity, unit_override, tier_indices)
		VALUES ($1, $2, $3, $4, $5)`

	createOrderItemSQL = `INSERT INTO order_items (order_id, target_id, product_type_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)`
)

var _ order.Orders = (*OrderRepository)(nil)

// OrderRepository implements order.Orders backed by PostgreSQL. The order's
// calculation input is normalized across the order tables; Create writes
// the whole graph in one transaction so readers never see a partial order.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new cake order together with its tiers, decorations,
// and line items.
func (r *OrderRepository) Create(ctx context.Context, o *order.CakeOrder) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create order tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	in := o.Input
	_, err = tx.Exec(ctx, createOrderSQL,
		o.ID, o.QuoteID, o.CustomerName, in.IsDelivery, in.DeliveryZoneID,
		in.DeliveryDistance, in.BakerHours, in.AssistantHours, in.MarkupPercent,
		(*string)(in.DiscountType), in.DiscountValue, in.CustomTopperFee, o.EstimatedHours,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	for _, t := range in.Tiers {
		_, err = tx.Exec(ctx, createOrderTierSQL,
			o.ID, t.TierIndex, t.TierSizeID,
			t.BatterRecipeID, t.FillingRecipeID, t.FrostingRecipeID,
			t.BatterMultiplier, t.FillingMultiplier, t.FrostingMultiplier,
		)
		if err != nil {
			return fmt.Errorf("creating order %q tier %d: %w", o.ID, t.TierIndex, err)
		}
	}

	for _, d := range in.Decorations {
		tierIndices := d.TierIndices
		if tierIndices == nil {
			tierIndices = []int{}
		}
		_, err = tx.Exec(ctx, createOrderDecorationSQL,
			o.ID, d.TechniqueID, d.Quantity, (*string)(d.UnitOverride), tierIndices,
		)
		if err != nil {
			return fmt.Errorf("creating order %q decoration %s: %w", o.ID, d.TechniqueID, err)
		}
	}

	for _, item := range in.Items {
		_, err = tx.Exec(ctx, createOrderItemSQL,
			o.ID, item.TargetID, item.ProductTypeID, item.Quantity, item.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("creating order %q item %s: %w", o.ID, item.TargetID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create order %q: %w", o.ID, err)
	}
	return nil
}

// Get returns one cake order with its full input graph.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.CakeOrder, error) {
	var o order.CakeOrder
	err := (&SnapshotRepository{pool: r.pool}).inSnapshotTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		o, err = getOrder(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func getOrder(ctx context.Context, q querier, id string) (order.CakeOrder, error) {
	rows, err := q.Query(ctx, getOrderSQL, id)
	if err != nil {
		return order.CakeOrder{}, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.CakeOrder{}, order.ErrOrderNotFound
		}
		return order.CakeOrder{}, fmt.Errorf("getting order %q: %w", id, err)
	}

	if o.Input.Tiers, err = loadOrderTiers(ctx, q, id); err != nil {
		return order.CakeOrder{}, fmt.Errorf("loading order %q tiers: %w", id, err)
	}
	if o.Input.Decorations, err = loadOrderDecorations(ctx, q, id); err != nil {
		return order.CakeOrder{}, fmt.Errorf("loading order %q decorations: %w", id, err)
	}
	if o.Input.Items, err = loadOrderItems(ctx, q, id); err != nil {
		return order.CakeOrder{}, fmt.Errorf("loading order %q items: %w", id, err)
	}

	return o, nil
}

// loadOrderInput is the snapshot loader's view of an order: just the
// calculation input, without order identity fields.
func loadOrderInput(ctx context.Context, q querier, id string) (costing.Input, error) {
	o, err := getOrder(ctx, q, id)
	if err != nil {
		return costing.Input{}, err
	}
	return o.Input, nil
}

func scanOrder(row pgx.CollectableRow) (order.CakeOrder, error) {
	var (
		o            order.CakeOrder
		discountType *string
	)
	err := row.Scan(
		&o.ID, &o.QuoteID, &o.CustomerName,
		&o.Input.IsDelivery, &o.Input.DeliveryZoneID, &o.Input.DeliveryDistance,
		&o.Input.BakerHours, &o.Input.AssistantHours, &o.Input.MarkupPercent,
		&discountType, &o.Input.DiscountValue, &o.Input.CustomTopperFee,
		&o.EstimatedHours, &o.CreatedAt,
	)
	o.Input.DiscountType = (*costing.DiscountType)(discountType)
	return o, err
}

func loadOrderTiers(ctx context.Context, q querier, orderID string) ([]costing.Tier, error) {
	rows, err := q.Query(ctx, listOrderTiersSQL, orderID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (costing.Tier, error) {
		var t costing.Tier
		err := row.Scan(&t.TierIndex, &t.TierSizeID,
			&t.BatterRecipeID, &t.FillingRecipeID, &t.FrostingRecipeID,
			&t.BatterMultiplier, &t.FillingMultiplier, &t.FrostingMultiplier)
		return t, err
	})
}

func loadOrderDecorations(ctx context.Context, q querier, orderID string) ([]costing.Decoration, error) {
	rows, err := q.Query(ctx, listOrderDecorationsSQL, orderID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (costing.Decoration, error) {
		var (
			d            costing.Decoration
			unitOverride *string
			tierIndices  []int32
		)
		err := row.Scan(&d.TechniqueID, &d.Quantity, &unitOverride, &tierIndices)
		d.UnitOverride = (*costing.DecorationUnit)(unitOverride)
		for _, idx := range tierIndices {
			d.TierIndices = append(d.TierIndices, int(idx))
		}
		return d, err
	})
}

func loadOrderItems(ctx context.Context, q querier, orderID string) ([]costing.LineItem, error) {
	rows, err := q.Query(ctx, listOrderItemsSQL, orderID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (costing.LineItem, error) {
		var item costing.LineItem
		err := row.Scan(&item.TargetID, &item.ProductTypeID, &item.Quantity, &item.UnitPrice)
		return item, err
	})
}
