package costing

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Shared fixtures ---

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func unitPtr(u DecorationUnit) *DecorationUnit { return &u }

func discountPtr(t DiscountType) *DiscountType { return &t }

// testCatalog returns a small but complete bakery catalog.
//
// Recipe costs at multiplier 1:
//
//	vanilla-batter:       500g flour (0.002) + 300g sugar (0.003) + 200g butter (0.01) = 3.90
//	chocolate-filling:    250g cream (0.008) + 100g sugar (0.003)                      = 2.30
//	buttercream-frosting: 300g butter (0.01) + 200g sugar (0.003)                      = 3.60
func testCatalog() Catalog {
	return Catalog{
		Ingredients: map[string]Ingredient{
			"flour":  {ID: "flour", Unit: "g", CostPerUnit: dec("0.002")},
			"sugar":  {ID: "sugar", Unit: "g", CostPerUnit: dec("0.003")},
			"butter": {ID: "butter", Unit: "g", CostPerUnit: dec("0.01")},
			"cream":  {ID: "cream", Unit: "g", CostPerUnit: dec("0.008")},
		},
		Recipes: map[string]Recipe{
			"vanilla-batter": {
				ID: "vanilla-batter", Type: RecipeBatter,
				Ingredients: []RecipeIngredient{
					{IngredientID: "flour", Quantity: dec("500")},
					{IngredientID: "sugar", Quantity: dec("300")},
					{IngredientID: "butter", Quantity: dec("200")},
				},
			},
			"chocolate-filling": {
				ID: "chocolate-filling", Type: RecipeFilling,
				Ingredients: []RecipeIngredient{
					{IngredientID: "cream", Quantity: dec("250")},
					{IngredientID: "sugar", Quantity: dec("100")},
				},
			},
			"buttercream-frosting": {
				ID: "buttercream-frosting", Type: RecipeFrosting,
				Ingredients: []RecipeIngredient{
					{IngredientID: "butter", Quantity: dec("300")},
					{IngredientID: "sugar", Quantity: dec("200")},
				},
			},
		},
		TierSizes: map[string]TierSize{
			"six-inch": {ID: "six-inch", Name: `6"`, Servings: 12},
			"ten-inch": {
				ID: "ten-inch", Name: `10"`, Servings: 30,
				DefaultBatterMultiplier:   decPtr("1.5"),
				DefaultFrostingMultiplier: decPtr("2"),
			},
		},
		Techniques: map[string]Technique{
			"piped-rosettes": {
				ID: "piped-rosettes", Unit: UnitTier,
				CostPerUnit: dec("4"), LaborMinutes: 15,
			},
			"fondant-wrap": {
				ID: "fondant-wrap", Unit: UnitCake,
				CostPerUnit: dec("12"), LaborMinutes: 30,
				LaborRoleID: strPtr("sugar-artist"),
			},
			"sugar-flower": {
				ID: "sugar-flower", Unit: UnitSingle,
				CostPerUnit: dec("2.5"), LaborMinutes: 12,
				LaborRoleID: strPtr("sugar-artist"),
			},
			"letter-set": {
				ID: "letter-set", Unit: UnitSet,
				CostPerUnit: dec("8"), LaborMinutes: 6,
			},
		},
		Roles: map[string]Role{
			"baker":        {ID: "baker", HourlyRate: dec("30")},
			"assistant":    {ID: "assistant", HourlyRate: dec("18")},
			"sugar-artist": {ID: "sugar-artist", HourlyRate: dec("45")},
		},
		Zones: map[string]Zone{
			"metro": {ID: "metro", Name: "Metro", BaseFee: dec("15"), PerMileFee: decPtr("1.5")},
			"flat":  {ID: "flat", Name: "Flat rate", BaseFee: dec("25")},
		},
		Breakpoints: map[string][]Breakpoint{
			"cupcake": {
				{TargetID: "cupcake", MinQuantity: 100, MaxQuantity: intPtr(199), DiscountPercent: decPtr("5")},
				{TargetID: "cupcake", MinQuantity: 200, MaxQuantity: intPtr(299), DiscountPercent: decPtr("10")},
			},
			"pastry": {
				{TargetID: "pastry", MinQuantity: 50, PricePerUnit: decPtr("2.75")},
			},
		},
	}
}

// --- Orchestrator ---

func TestEngineCost_OrderOfOperations(t *testing.T) {
	// base 100 = 2 baker hours at 30 + topper fee 40.
	// markup 70% -> suggested 170; 10% discount -> 17; flat delivery 25.
	// final = (170 - 17) + 25 = 178. Delivery is never discounted.
	in := Input{
		BakerHours:      dec("2"),
		MarkupPercent:   decPtr("70"),
		DiscountType:    discountPtr(DiscountPercent),
		DiscountValue:   decPtr("10"),
		CustomTopperFee: decPtr("40"),
		IsDelivery:      true,
		DeliveryZoneID:  strPtr("flat"),
	}

	res, err := New(DefaultConfig()).Cost(in, testCatalog())
	require.NoError(t, err)

	assert.True(t, res.BaseCost.Equal(dec("100")), "base cost: %s", res.BaseCost)
	assert.True(t, res.SuggestedPrice.Equal(dec("170")), "suggested: %s", res.SuggestedPrice)
	assert.True(t, res.DiscountAmount.Equal(dec("17")), "discount: %s", res.DiscountAmount)
	assert.True(t, res.DeliveryCost.Equal(dec("25")), "delivery: %s", res.DeliveryCost)
	assert.True(t, res.FinalPrice.Equal(dec("178")), "final: %s", res.FinalPrice)
	require.NotNil(t, res.Delivery)
	assert.Equal(t, "Flat rate", res.Delivery.ZoneName)
	assert.Nil(t, res.Delivery.EstimatedDistance)
}

func TestEngineCost_FullOrder(t *testing.T) {
	in := Input{
		Tiers: []Tier{
			{
				TierIndex:        1,
				TierSizeID:       "ten-inch",
				BatterRecipeID:   strPtr("vanilla-batter"),
				FrostingRecipeID: strPtr("buttercream-frosting"),
			},
			{
				TierIndex:       0,
				TierSizeID:      "six-inch",
				BatterRecipeID:  strPtr("vanilla-batter"),
				FillingRecipeID: strPtr("chocolate-filling"),
			},
		},
		Decorations: []Decoration{
			// tier unit, two tiers selected: material 2*4=8, labor 2*15min=0.5h baker.
			{TechniqueID: "piped-rosettes", Quantity: 1, TierIndices: []int{0, 1}},
			// cake unit: material 12, labor 0.5h sugar-artist.
			{TechniqueID: "fondant-wrap", Quantity: 1},
		},
		Items: []LineItem{
			{TargetID: "cupcake", Quantity: 150, UnitPrice: dec("3.50")},
		},
		BakerHours:     dec("3"),
		AssistantHours: dec("1.5"),
		MarkupPercent:  decPtr("50"),
	}

	res, err := New(DefaultConfig()).Cost(in, testCatalog())
	require.NoError(t, err)

	// Recipes: six-inch batter 3.90 + filling 2.30 (defaults 1);
	// ten-inch batter 3.90*1.5 + frosting 3.60*2 = 13.05. Total 19.25.
	assert.True(t, res.RecipeCost.Equal(dec("19.25")), "recipe cost: %s", res.RecipeCost)
	assert.Equal(t, 42, res.TotalServings)

	assert.True(t, res.DecorationMaterialCost.Equal(dec("20")), "materials: %s", res.DecorationMaterialCost)

	// Labor: baker 3h direct + 0.5h rosettes = 3.5h at 30 = 105;
	// assistant 1.5h at 18 = 27; sugar-artist 0.5h at 45 = 22.50.
	require.Len(t, res.LaborBreakdown, 3)
	assert.Equal(t, "baker", res.LaborBreakdown[0].RoleID)
	assert.True(t, res.LaborBreakdown[0].Hours.Equal(dec("3.5")))
	assert.True(t, res.LaborBreakdown[0].Cost.Equal(dec("105")))
	assert.Equal(t, "assistant", res.LaborBreakdown[1].RoleID)
	assert.True(t, res.LaborBreakdown[1].Cost.Equal(dec("27")))
	assert.Equal(t, "sugar-artist", res.LaborBreakdown[2].RoleID)
	assert.True(t, res.LaborBreakdown[2].Cost.Equal(dec("22.5")))

	// base = 19.25 + 20 + 154.50 = 193.75; suggested = 193.75 * 1.5 = 290.625 -> 290.63.
	assert.True(t, res.BaseCost.Equal(dec("193.75")), "base: %s", res.BaseCost)
	assert.True(t, res.SuggestedPrice.Equal(dec("290.63")), "suggested: %s", res.SuggestedPrice)

	// Cupcakes: 150 in the [100,199] range -> 5% off: 3.50*0.95*150 = 498.75.
	// final = 290.625 + 498.75 = 789.375 -> 789.38 (rounded once, at the end).
	assert.True(t, res.FinalPrice.Equal(dec("789.38")), "final: %s", res.FinalPrice)

	assert.True(t, res.EstimatedHours().Equal(dec("5.5")), "hours: %s", res.EstimatedHours())
}

func TestEngineCost_Deterministic(t *testing.T) {
	in := Input{
		Tiers: []Tier{
			{TierIndex: 0, TierSizeID: "six-inch", BatterRecipeID: strPtr("vanilla-batter")},
			{TierIndex: 1, TierSizeID: "ten-inch", FrostingRecipeID: strPtr("buttercream-frosting")},
		},
		Decorations: []Decoration{
			{TechniqueID: "sugar-flower", Quantity: 12},
			{TechniqueID: "piped-rosettes", Quantity: 2, TierIndices: []int{1}},
		},
		Items:          []LineItem{{TargetID: "cupcake", Quantity: 210, UnitPrice: dec("3.25")}},
		BakerHours:     dec("2.25"),
		AssistantHours: dec("0.75"),
		MarkupPercent:  decPtr("65"),
		DiscountType:   discountPtr(DiscountFixed),
		DiscountValue:  decPtr("20"),
		IsDelivery:     true,
		DeliveryZoneID: strPtr("metro"),
	}

	engine := New(DefaultConfig())
	cat := testCatalog()

	first, err := engine.Cost(in, cat)
	require.NoError(t, err)

	for range 5 {
		again, err := engine.Cost(in, cat)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestEngineCost_DanglingReferences(t *testing.T) {
	cat := testCatalog()

	tests := []struct {
		name   string
		in     Input
		target any
	}{
		{
			name: "deleted technique",
			in: Input{
				Decorations: []Decoration{{TechniqueID: "gone", Quantity: 1}},
			},
			target: new(*UnknownTechniqueError),
		},
		{
			name: "deleted recipe",
			in: Input{
				Tiers: []Tier{{TierSizeID: "six-inch", BatterRecipeID: strPtr("gone")}},
			},
			target: new(*UnknownRecipeError),
		},
		{
			name: "deleted tier size",
			in: Input{
				Tiers: []Tier{{TierSizeID: "gone"}},
			},
			target: new(*UnknownTierSizeError),
		},
		{
			name: "deleted delivery zone",
			in: Input{
				IsDelivery:     true,
				DeliveryZoneID: strPtr("gone"),
			},
			target: new(*MissingDeliveryZoneError),
		},
	}

	engine := New(DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := engine.Cost(tt.in, cat)
			require.Error(t, err)
			assert.Nil(t, res, "a dangling reference must never yield a partial result")
			assert.True(t, errors.As(err, tt.target), "want %T, got %v", tt.target, err)
		})
	}
}

func TestEngineCost_MissingIngredientIsFatal(t *testing.T) {
	cat := testCatalog()
	r := cat.Recipes["vanilla-batter"]
	r.Ingredients = append(r.Ingredients, RecipeIngredient{IngredientID: "saffron", Quantity: dec("2")})
	cat.Recipes["vanilla-batter"] = r

	in := Input{
		Tiers: []Tier{{TierSizeID: "six-inch", BatterRecipeID: strPtr("vanilla-batter")}},
	}

	_, err := New(DefaultConfig()).Cost(in, cat)
	require.Error(t, err)

	var miErr *MissingIngredientError
	require.True(t, errors.As(err, &miErr))
	assert.Equal(t, "vanilla-batter", miErr.RecipeID)
	assert.Equal(t, "saffron", miErr.IngredientID)
}

func TestEngineCost_DeliveryWithoutZone(t *testing.T) {
	in := Input{IsDelivery: true}

	_, err := New(DefaultConfig()).Cost(in, testCatalog())
	require.ErrorIs(t, err, ErrDeliveryZoneRequired)
}

func TestEngineCost_DefaultMarkupFromConfig(t *testing.T) {
	engine := New(Config{DefaultMarkupPercent: dec("40")})

	in := Input{BakerHours: dec("1")} // base 30
	res, err := engine.Cost(in, testCatalog())
	require.NoError(t, err)
	assert.True(t, res.SuggestedPrice.Equal(dec("42")), "suggested: %s", res.SuggestedPrice)
}
