package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/sugarmill/bakeshop/internal/costing"
	"github.com/sugarmill/bakeshop/internal/order"
)

const (
	listIngredientsSQL = `SELECT id, unit, cost_per_unit FROM ingredients`

	listRecipesSQL = `SELECT r.id, r.name, r.type, ri.ingredient_id, ri.quantity
		FROM recipes r
		LEFT JOIN recipe_ingredients ri ON ri.recipe_id = r.id
		ORDER BY r.id, ri.ingredient_id`

	listTierSizesSQL = `SELECT id, name, servings,
		default_batter_multiplier, default_filling_multiplier, default_frosting_multiplier
		FROM tier_sizes`

	listTechniquesSQL = `SELECT id, name, cost_per_unit, labor_minutes, labor_role_id, unit
		FROM decoration_techniques`

	listRolesSQL = `SELECT id, name, hourly_rate FROM labor_roles`

	listZonesSQL = `SELECT id, name, base_fee, per_mile_fee, min_distance, max_distance
		FROM delivery_zones`

	listBreakpointsSQL = `SELECT target_id, min_quantity, max_quantity, discount_percent, price_per_unit
		FROM volume_breakpoints ORDER BY target_id, min_quantity`
)

var _ order.Snapshots = (*SnapshotRepository)(nil)

// SnapshotRepository loads read-consistent costing snapshots. Every load
// runs inside a single repeatable-read, read-only transaction so the engine
// never observes a half-written order graph.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository returns a SnapshotRepository that uses the given pool.
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// LoadCatalog returns the full catalog snapshot. Catalog tables are small
// (a bakery's recipes and techniques, not a warehouse), so whole-table loads
// are cheaper than chasing the order's reference set query by query.
func (r *SnapshotRepository) LoadCatalog(ctx context.Context) (costing.Catalog, error) {
	var cat costing.Catalog
	err := r.inSnapshotTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		cat, err = loadCatalog(ctx, tx)
		return err
	})
	return cat, err
}

// LoadOrder returns one order's calculation input together with the catalog,
// both read in the same transaction.
func (r *SnapshotRepository) LoadOrder(ctx context.Context, orderID string) (costing.Input, costing.Catalog, error) {
	var (
		in  costing.Input
		cat costing.Catalog
	)
	err := r.inSnapshotTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		if in, err = loadOrderInput(ctx, tx, orderID); err != nil {
			return err
		}
		cat, err = loadCatalog(ctx, tx)
		return err
	})
	return in, cat, err
}

func (r *SnapshotRepository) inSnapshotTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func loadCatalog(ctx context.Context, q querier) (costing.Catalog, error) {
	cat := costing.Catalog{
		Ingredients: make(map[string]costing.Ingredient),
		Recipes:     make(map[string]costing.Recipe),
		TierSizes:   make(map[string]costing.TierSize),
		Techniques:  make(map[string]costing.Technique),
		Roles:       make(map[string]costing.Role),
		Zones:       make(map[string]costing.Zone),
		Breakpoints: make(map[string][]costing.Breakpoint),
	}

	if err := loadIngredients(ctx, q, cat.Ingredients); err != nil {
		return cat, fmt.Errorf("loading ingredients: %w", err)
	}
	if err := loadRecipes(ctx, q, cat.Recipes); err != nil {
		return cat, fmt.Errorf("loading recipes: %w", err)
	}
	if err := loadTierSizes(ctx, q, cat.TierSizes); err != nil {
		return cat, fmt.Errorf("loading tier sizes: %w", err)
	}
	if err := loadTechniques(ctx, q, cat.Techniques); err != nil {
		return cat, fmt.Errorf("loading decoration techniques: %w", err)
	}
	if err := loadRoles(ctx, q, cat.Roles); err != nil {
		return cat, fmt.Errorf("loading labor roles: %w", err)
	}
	if err := loadZones(ctx, q, cat.Zones); err != nil {
		return cat, fmt.Errorf("loading delivery zones: %w", err)
	}
	if err := loadBreakpoints(ctx, q, cat.Breakpoints); err != nil {
		return cat, fmt.Errorf("loading volume breakpoints: %w", err)
	}

	return cat, nil
}

func loadIngredients(ctx context.Context, q querier, dst map[string]costing.Ingredient) error {
	rows, err := q.Query(ctx, listIngredientsSQL)
	if err != nil {
		return err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (costing.Ingredient, error) {
		var ing costing.Ingredient
		err := row.Scan(&ing.ID, &ing.Unit, &ing.CostPerUnit)
		return ing, err
	})
	if err != nil {
		return err
	}
	for _, ing := range items {
		dst[ing.ID] = ing
	}
	return nil
}

func loadRecipes(ctx context.Context, q querier, dst map[string]costing.Recipe) error {
	rows, err := q.Query(ctx, listRecipesSQL)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, name, rtype string
			ingredientID    *string
			quantity        *decimal.Decimal
		)
		if err := rows.Scan(&id, &name, &rtype, &ingredientID, &quantity); err != nil {
			return err
		}

		r, ok := dst[id]
		if !ok {
			r = costing.Recipe{ID: id, Name: name, Type: costing.RecipeType(rtype)}
		}
		if ingredientID != nil && quantity != nil {
			r.Ingredients = append(r.Ingredients, costing.RecipeIngredient{
				IngredientID: *ingredientID,
				Quantity:     *quantity,
			})
		}
		dst[id] = r
	}
	return rows.Err()
}

func loadTierSizes(ctx context.Context, q querier, dst map[string]costing.TierSize) error {
	rows, err := q.Query(ctx, listTierSizesSQL)
	if err != nil {
		return err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (costing.TierSize, error) {
		var ts costing.TierSize
		err := row.Scan(&ts.ID, &ts.Name, &ts.Servings,
			&ts.DefaultBatterMultiplier, &ts.DefaultFillingMultiplier, &ts.DefaultFrostingMultiplier)
		return ts, err
	})
	if err != nil {
		return err
	}
	for _, ts := range items {
		dst[ts.ID] = ts
	}
	return nil
}

func loadTechniques(ctx context.Context, q querier, dst map[string]costing.Technique) error {
	rows, err := q.Query(ctx, listTechniquesSQL)
	if err != nil {
		return err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (costing.Technique, error) {
		var (
			t    costing.Technique
			unit string
		)
		err := row.Scan(&t.ID, &t.Name, &t.CostPerUnit, &t.LaborMinutes, &t.LaborRoleID, &unit)
		t.Unit = costing.DecorationUnit(unit)
		return t, err
	})
	if err != nil {
		return err
	}
	for _, t := range items {
		dst[t.ID] = t
	}
	return nil
}

func loadRoles(ctx context.Context, q querier, dst map[string]costing.Role) error {
	rows, err := q.Query(ctx, listRolesSQL)
	if err != nil {
		return err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (costing.Role, error) {
		var role costing.Role
		err := row.Scan(&role.ID, &role.Name, &role.HourlyRate)
		return role, err
	})
	if err != nil {
		return err
	}
	for _, role := range items {
		dst[role.ID] = role
	}
	return nil
}

func loadZones(ctx context.Context, q querier, dst map[string]costing.Zone) error {
	rows, err := q.Query(ctx, listZonesSQL)
	if err != nil {
		return err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (costing.Zone, error) {
		var z costing.Zone
		err := row.Scan(&z.ID, &z.Name, &z.BaseFee, &z.PerMileFee, &z.MinDistance, &z.MaxDistance)
		return z, err
	})
	if err != nil {
		return err
	}
	for _, z := range items {
		dst[z.ID] = z
	}
	return nil
}

func loadBreakpoints(ctx context.Context, q querier, dst map[string][]costing.Breakpoint) error {
	rows, err := q.Query(ctx, listBreakpointsSQL)
	if err != nil {
		return err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (costing.Breakpoint, error) {
		var (
			bp          costing.Breakpoint
			maxQuantity *int32
		)
		err := row.Scan(&bp.TargetID, &bp.MinQuantity, &maxQuantity, &bp.DiscountPercent, &bp.PricePerUnit)
		if maxQuantity != nil {
			v := int(*maxQuantity)
			bp.MaxQuantity = &v
		}
		return bp, err
	})
	if err != nil {
		return err
	}
	for _, bp := range items {
		dst[bp.TargetID] = append(dst[bp.TargetID], bp)
	}
	return nil
}
