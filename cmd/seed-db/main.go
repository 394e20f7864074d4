// Command seed-db loads a starter catalog into the database: labor roles,
// ingredients, recipes, tier sizes, decoration techniques, delivery zones,
// volume breakpoints, a demo quote, and an API key for the convert endpoint.
// All writes are upserts, so reruns are safe.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/sugarmill/bakeshop/internal/costing"
	"github.com/sugarmill/bakeshop/internal/storage/postgres"
)

func main() {
	var (
		databaseURL  string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or BAKESHOP_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or BAKESHOP_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("BAKESHOP_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or BAKESHOP_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("BAKESHOP_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	steps := []struct {
		name string
		fn   func(context.Context, *pgxpool.Pool) error
	}{
		{"labor roles", seedRoles},
		{"ingredients", seedIngredients},
		{"recipes", seedRecipes},
		{"tier sizes", seedTierSizes},
		{"decoration techniques", seedTechniques},
		{"delivery zones", seedZones},
		{"volume breakpoints", seedBreakpoints},
		{"demo order", seedDemoOrder},
		{"demo quote", seedDemoQuote},
	}
	for _, s := range steps {
		slog.Info("seeding", slog.String("step", s.name))
		if err := s.fn(ctx, pool); err != nil {
			return errors.Wrapf(err, "seed %s", s.name)
		}
	}

	if err := seedAPIKey(ctx, pool, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func seedRoles(ctx context.Context, pool *pgxpool.Pool) error {
	roles := []struct {
		id, name string
		rate     string
	}{
		{"baker", "Baker", "30.00"},
		{"assistant", "Assistant", "18.00"},
		{"sugar-artist", "Sugar Artist", "45.00"},
	}
	for _, r := range roles {
		_, err := pool.Exec(ctx, `
			INSERT INTO labor_roles (id, name, hourly_rate)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, hourly_rate = EXCLUDED.hourly_rate`,
			r.id, r.name, decimal.RequireFromString(r.rate))
		if err != nil {
			return errors.Wrapf(err, "role %s", r.id)
		}
	}
	return nil
}

func seedIngredients(ctx context.Context, pool *pgxpool.Pool) error {
	ingredients := []struct {
		id, name, unit string
		cost           string
	}{
		{"flour", "All-purpose flour", "g", "0.002"},
		{"sugar", "Caster sugar", "g", "0.003"},
		{"butter", "Unsalted butter", "g", "0.01"},
		{"eggs", "Free-range eggs", "unit", "0.45"},
		{"cream", "Heavy cream", "ml", "0.008"},
		{"cocoa", "Cocoa powder", "g", "0.015"},
		{"vanilla", "Vanilla extract", "ml", "0.30"},
		{"fondant", "Rolled fondant", "g", "0.012"},
	}
	for _, i := range ingredients {
		_, err := pool.Exec(ctx, `
			INSERT INTO ingredients (id, name, unit, cost_per_unit)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, unit = EXCLUDED.unit, cost_per_unit = EXCLUDED.cost_per_unit`,
			i.id, i.name, i.unit, decimal.RequireFromString(i.cost))
		if err != nil {
			return errors.Wrapf(err, "ingredient %s", i.id)
		}
	}
	return nil
}

func seedRecipes(ctx context.Context, pool *pgxpool.Pool) error {
	recipes := []struct {
		id, name, typ string
		parts         map[string]string
	}{
		{"vanilla-batter", "Vanilla sponge", "batter", map[string]string{
			"flour": "500", "sugar": "400", "butter": "250", "eggs": "6", "vanilla": "10",
		}},
		{"chocolate-batter", "Chocolate mud", "batter", map[string]string{
			"flour": "450", "sugar": "450", "butter": "300", "eggs": "5", "cocoa": "80",
		}},
		{"chocolate-filling", "Chocolate ganache filling", "filling", map[string]string{
			"cream": "200", "cocoa": "50",
		}},
		{"buttercream-frosting", "Swiss meringue buttercream", "frosting", map[string]string{
			"butter": "300", "sugar": "200",
		}},
	}
	for _, r := range recipes {
		_, err := pool.Exec(ctx, `
			INSERT INTO recipes (id, name, type) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, type = EXCLUDED.type`,
			r.id, r.name, r.typ)
		if err != nil {
			return errors.Wrapf(err, "recipe %s", r.id)
		}
		for ingredientID, qty := range r.parts {
			_, err := pool.Exec(ctx, `
				INSERT INTO recipe_ingredients (recipe_id, ingredient_id, quantity)
				VALUES ($1, $2, $3)
				ON CONFLICT (recipe_id, ingredient_id) DO UPDATE SET quantity = EXCLUDED.quantity`,
				r.id, ingredientID, decimal.RequireFromString(qty))
			if err != nil {
				return errors.Wrapf(err, "recipe %s ingredient %s", r.id, ingredientID)
			}
		}
	}
	return nil
}

func seedTierSizes(ctx context.Context, pool *pgxpool.Pool) error {
	type mult = *decimal.Decimal
	d := func(s string) mult {
		v := decimal.RequireFromString(s)
		return &v
	}
	sizes := []struct {
		id, name                  string
		servings                  int
		batter, filling, frosting mult
	}{
		{"six-inch", `6" round`, 12, nil, nil, nil},
		{"eight-inch", `8" round`, 20, d("1.25"), nil, d("1.5")},
		{"ten-inch", `10" round`, 30, d("1.5"), d("1.5"), d("2")},
		{"twelve-inch", `12" round`, 45, d("2"), d("2"), d("2.5")},
	}
	for _, s := range sizes {
		_, err := pool.Exec(ctx, `
			INSERT INTO tier_sizes
				(id, name, servings, default_batter_multiplier, default_filling_multiplier, default_frosting_multiplier)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				servings = EXCLUDED.servings,
				default_batter_multiplier = EXCLUDED.default_batter_multiplier,
				default_filling_multiplier = EXCLUDED.default_filling_multiplier,
				default_frosting_multiplier = EXCLUDED.default_frosting_multiplier`,
			s.id, s.name, s.servings, s.batter, s.filling, s.frosting)
		if err != nil {
			return errors.Wrapf(err, "tier size %s", s.id)
		}
	}
	return nil
}

func seedTechniques(ctx context.Context, pool *pgxpool.Pool) error {
	techniques := []struct {
		id, name, unit string
		cost           string
		minutes        int
		roleID         *string
	}{
		{"piped-rosettes", "Piped rosettes", "tier", "4.00", 15, nil},
		{"fondant-wrap", "Fondant wrap", "cake", "12.00", 30, strPtr("sugar-artist")},
		{"sugar-flower", "Sugar flower", "single", "2.50", 12, strPtr("sugar-artist")},
		{"letter-set", "Piped lettering", "set", "8.00", 6, nil},
	}
	for _, t := range techniques {
		_, err := pool.Exec(ctx, `
			INSERT INTO decoration_techniques (id, name, cost_per_unit, labor_minutes, labor_role_id, unit)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				cost_per_unit = EXCLUDED.cost_per_unit,
				labor_minutes = EXCLUDED.labor_minutes,
				labor_role_id = EXCLUDED.labor_role_id,
				unit = EXCLUDED.unit`,
			t.id, t.name, decimal.RequireFromString(t.cost), t.minutes, t.roleID, t.unit)
		if err != nil {
			return errors.Wrapf(err, "technique %s", t.id)
		}
	}
	return nil
}

func seedZones(ctx context.Context, pool *pgxpool.Pool) error {
	d := func(s string) *decimal.Decimal {
		v := decimal.RequireFromString(s)
		return &v
	}
	zones := []struct {
		id, name         string
		baseFee          string
		perMile, min, max *decimal.Decimal
	}{
		{"metro", "Metro", "15.00", d("1.50"), nil, d("20")},
		{"suburbs", "Suburbs", "25.00", d("2.00"), d("20"), d("50")},
		{"flat-local", "Flat local", "25.00", nil, nil, nil},
	}
	for _, z := range zones {
		_, err := pool.Exec(ctx, `
			INSERT INTO delivery_zones (id, name, base_fee, per_mile_fee, min_distance, max_distance)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				base_fee = EXCLUDED.base_fee,
				per_mile_fee = EXCLUDED.per_mile_fee,
				min_distance = EXCLUDED.min_distance,
				max_distance = EXCLUDED.max_distance`,
			z.id, z.name, decimal.RequireFromString(z.baseFee), z.perMile, z.min, z.max)
		if err != nil {
			return errors.Wrapf(err, "zone %s", z.id)
		}
	}
	return nil
}

func seedBreakpoints(ctx context.Context, pool *pgxpool.Pool) error {
	d := func(s string) *decimal.Decimal {
		v := decimal.RequireFromString(s)
		return &v
	}
	intPtr := func(n int) *int { return &n }
	breakpoints := []struct {
		targetID        string
		minQty          int
		maxQty          *int
		discountPercent *decimal.Decimal
		pricePerUnit    *decimal.Decimal
	}{
		{"cupcake", 100, intPtr(199), d("5"), nil},
		{"cupcake", 200, intPtr(299), d("10"), nil},
		{"cupcake", 300, nil, d("15"), nil},
		{"pastry", 50, nil, nil, d("2.75")},
	}
	// Breakpoint rows have no natural key; replace the set wholesale.
	for _, b := range breakpoints {
		_, err := pool.Exec(ctx,
			`DELETE FROM volume_breakpoints WHERE target_id = $1 AND min_quantity = $2`,
			b.targetID, b.minQty)
		if err != nil {
			return errors.Wrapf(err, "clear breakpoint %s@%d", b.targetID, b.minQty)
		}
		_, err = pool.Exec(ctx, `
			INSERT INTO volume_breakpoints (target_id, min_quantity, max_quantity, discount_percent, price_per_unit)
			VALUES ($1, $2, $3, $4, $5)`,
			b.targetID, b.minQty, b.maxQty, b.discountPercent, b.pricePerUnit)
		if err != nil {
			return errors.Wrapf(err, "breakpoint %s@%d", b.targetID, b.minQty)
		}
	}
	return nil
}

func seedDemoOrder(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO cake_orders (id, customer_name, is_delivery, delivery_zone_id, delivery_distance,
			baker_hours, assistant_hours, markup_percent, custom_topper_fee)
		VALUES ('demo-order', 'Walk-in Demo', TRUE, 'metro', 12, 3.5, 1.5, 50, 12)
		ON CONFLICT (id) DO NOTHING`)
	if err != nil {
		return errors.Wrap(err, "upsert demo order")
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO order_tiers (order_id, tier_index, tier_size_id, batter_recipe_id, filling_recipe_id, frosting_recipe_id)
		VALUES
			('demo-order', 0, 'ten-inch', 'vanilla-batter', 'chocolate-filling', 'buttercream-frosting'),
			('demo-order', 1, 'six-inch', 'chocolate-batter', NULL, 'buttercream-frosting')
		ON CONFLICT (order_id, tier_index) DO NOTHING`)
	if err != nil {
		return errors.Wrap(err, "upsert demo order tiers")
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO order_decorations (order_id, technique_id, quantity, tier_indices)
		SELECT 'demo-order', 'piped-rosettes', 1, '{0,1}'::int[]
		WHERE NOT EXISTS (SELECT 1 FROM order_decorations WHERE order_id = 'demo-order')`)
	if err != nil {
		return errors.Wrap(err, "upsert demo order decorations")
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO order_items (order_id, target_id, product_type_id, quantity, unit_price)
		SELECT 'demo-order', 'lemon-cupcake', 'cupcake', 150, 3.50
		WHERE NOT EXISTS (SELECT 1 FROM order_items WHERE order_id = 'demo-order')`)
	return errors.Wrap(err, "upsert demo order items")
}

func seedDemoQuote(ctx context.Context, pool *pgxpool.Pool) error {
	in := costing.Input{
		Tiers: []costing.Tier{
			{TierIndex: 0, TierSizeID: "ten-inch", BatterRecipeID: strPtr("vanilla-batter"), FrostingRecipeID: strPtr("buttercream-frosting")},
			{TierIndex: 1, TierSizeID: "six-inch", BatterRecipeID: strPtr("chocolate-batter"), FillingRecipeID: strPtr("chocolate-filling")},
		},
		Decorations: []costing.Decoration{
			{TechniqueID: "piped-rosettes", Quantity: 1, TierIndices: []int{0, 1}},
			{TechniqueID: "sugar-flower", Quantity: 6},
		},
		BakerHours:     decimal.RequireFromString("3"),
		AssistantHours: decimal.RequireFromString("1.5"),
		MarkupPercent:  decPtr("50"),
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "marshal demo quote input")
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO quotes (id, customer_name, status, input)
		VALUES ('demo-quote', 'Demo Customer', 'accepted', $1)
		ON CONFLICT (id) DO UPDATE SET input = EXCLUDED.input`,
		payload)
	return errors.Wrap(err, "upsert demo quote")
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	slog.Info("seeding default API key")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	_, err := pool.Exec(ctx, `
		INSERT INTO api_keys (id, key_hash, name, scopes, active)
		VALUES ('default', $1, 'Default test key', $2, TRUE)
		ON CONFLICT (id) DO UPDATE SET key_hash = EXCLUDED.key_hash`,
		keyHash, []string{"convert_quote"})
	return errors.Wrap(err, "upsert default API key")
}

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
