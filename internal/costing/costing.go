// Package costing implements the bakery's order and quote pricing engine.
//
// The engine is a pure function over a snapshot: it receives an order-shaped
// Input together with a Catalog of every referenced entity, already
// materialized by the caller, and returns a Result. It performs no I/O,
// reads no clock, and holds no state between calls, so the same snapshot
// always costs the same and concurrent callers need no coordination.
//
// All money, multipliers, hours, and distances use shopspring decimals.
// Intermediate values keep full precision; rounding to cents happens exactly
// once, on the currency fields of the Result.
package costing

import "github.com/shopspring/decimal"

// RecipeType distinguishes the three recipe slots of a cake tier.
type RecipeType string

// Recipe types.
const (
	RecipeBatter   RecipeType = "batter"
	RecipeFilling  RecipeType = "filling"
	RecipeFrosting RecipeType = "frosting"
)

// Ingredient is a raw material priced per base unit (e.g. cost per gram).
type Ingredient struct {
	ID          string          `json:"id"`
	Unit        string          `json:"unit"`
	CostPerUnit decimal.Decimal `json:"costPerUnit"`
}

// RecipeIngredient is one line of a recipe: a quantity of an ingredient in
// that ingredient's base unit. Quantities are positive and the ingredient
// set is unique per recipe.
type RecipeIngredient struct {
	IngredientID string          `json:"ingredientId"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// Recipe is a batter, filling, or frosting formula.
type Recipe struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Type        RecipeType         `json:"type"`
	Ingredients []RecipeIngredient `json:"ingredients"`
}

// TierSize carries the canonical scale factors for a physical cake size.
// The default multipliers are fallbacks used when a tier does not override
// them; a nil default falls through to 1.
type TierSize struct {
	ID                        string           `json:"id"`
	Name                      string           `json:"name"`
	Servings                  int              `json:"servings"`
	DefaultBatterMultiplier   *decimal.Decimal `json:"defaultBatterMultiplier,omitempty"`
	DefaultFillingMultiplier  *decimal.Decimal `json:"defaultFillingMultiplier,omitempty"`
	DefaultFrostingMultiplier *decimal.Decimal `json:"defaultFrostingMultiplier,omitempty"`
}

// Tier is one layer of the ordered cake. A nil recipe ID means the slot is
// empty and contributes no cost. A nil multiplier falls back to the tier
// size default, then to 1.
type Tier struct {
	TierIndex          int              `json:"tierIndex"`
	TierSizeID         string           `json:"tierSizeId"`
	BatterRecipeID     *string          `json:"batterRecipeId,omitempty"`
	FillingRecipeID    *string          `json:"fillingRecipeId,omitempty"`
	FrostingRecipeID   *string          `json:"frostingRecipeId,omitempty"`
	BatterMultiplier   *decimal.Decimal `json:"batterMultiplier,omitempty"`
	FillingMultiplier  *decimal.Decimal `json:"fillingMultiplier,omitempty"`
	FrostingMultiplier *decimal.Decimal `json:"frostingMultiplier,omitempty"`
}

// DecorationUnit describes how a decoration technique's cost scales.
type DecorationUnit string

// Decoration units.
const (
	// UnitSingle charges per piece, once per cake.
	UnitSingle DecorationUnit = "single"
	// UnitCake charges once per cake regardless of tier count.
	UnitCake DecorationUnit = "cake"
	// UnitTier charges per tier the decoration is applied to.
	UnitTier DecorationUnit = "tier"
	// UnitSet charges per set; the ordered quantity already denotes sets.
	UnitSet DecorationUnit = "set"
)

// Technique is a decoration technique from the catalog, with its material
// cost per unit and the labor it takes to apply one unit.
type Technique struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	CostPerUnit  decimal.Decimal `json:"costPerUnit"`
	LaborMinutes int             `json:"laborMinutes"`
	LaborRoleID  *string         `json:"laborRoleId,omitempty"`
	Unit         DecorationUnit  `json:"unit"`
}

// Decoration is one decoration line on an order.
type Decoration struct {
	TechniqueID  string          `json:"techniqueId"`
	Quantity     int             `json:"quantity"`
	UnitOverride *DecorationUnit `json:"unitOverride,omitempty"`
	TierIndices  []int           `json:"tierIndices,omitempty"`
}

// Role is a labor role billed at an hourly rate.
type Role struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	HourlyRate decimal.Decimal `json:"hourlyRate"`
}

// Zone is a delivery zone. Distance ranges are informational; the order
// references its zone explicitly, zones are never auto-selected by distance.
type Zone struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	BaseFee     decimal.Decimal  `json:"baseFee"`
	PerMileFee  *decimal.Decimal `json:"perMileFee,omitempty"`
	MinDistance *decimal.Decimal `json:"minDistance,omitempty"`
	MaxDistance *decimal.Decimal `json:"maxDistance,omitempty"`
}

// Breakpoint is a quantity-tiered price rule for an ancillary line item
// target (a menu item ID or a product type ID). A fixed PricePerUnit
// replaces the line's unit price outright and takes precedence over
// DiscountPercent.
type Breakpoint struct {
	TargetID        string           `json:"targetId"`
	MinQuantity     int              `json:"minQuantity"`
	MaxQuantity     *int             `json:"maxQuantity,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discountPercent,omitempty"`
	PricePerUnit    *decimal.Decimal `json:"pricePerUnit,omitempty"`
}

// LineItem is a non-tier product line on the order, e.g. four dozen cupcakes
// alongside the cake. ProductTypeID is the breakpoint fallback target when
// no item-specific breakpoint matches.
type LineItem struct {
	TargetID      string          `json:"targetId"`
	ProductTypeID string          `json:"productTypeId,omitempty"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
}

// DiscountType enumerates the order-level discount strategies.
type DiscountType string

// Order-level discount types.
const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

// Input is the calculation subject: the order- or quote-shaped structure the
// engine costs. Quotes and orders are mapped to this same shape before
// calculation, which is what makes quote costing and order costing
// byte-identical for equal inputs.
type Input struct {
	Tiers       []Tier       `json:"tiers"`
	Decorations []Decoration `json:"decorations,omitempty"`
	Items       []LineItem   `json:"items,omitempty"`

	IsDelivery       bool             `json:"isDelivery"`
	DeliveryZoneID   *string          `json:"deliveryZoneId,omitempty"`
	DeliveryDistance *decimal.Decimal `json:"deliveryDistance,omitempty"`

	BakerHours     decimal.Decimal `json:"bakerHours"`
	AssistantHours decimal.Decimal `json:"assistantHours"`

	MarkupPercent   *decimal.Decimal `json:"markupPercent,omitempty"`
	DiscountType    *DiscountType    `json:"discountType,omitempty"`
	DiscountValue   *decimal.Decimal `json:"discountValue,omitempty"`
	CustomTopperFee *decimal.Decimal `json:"customTopperFee,omitempty"`
}

// Catalog is the read-only lookup snapshot of every entity an Input may
// reference. The engine treats a missing referenced entity as a fatal
// data-integrity error, never as a zero-cost default.
type Catalog struct {
	Ingredients map[string]Ingredient
	Recipes     map[string]Recipe
	TierSizes   map[string]TierSize
	Techniques  map[string]Technique
	Roles       map[string]Role
	Zones       map[string]Zone

	// Breakpoints is keyed by target ID (menu item or product type).
	Breakpoints map[string][]Breakpoint
}

// Config carries the global pricing settings. They are passed in explicitly
// rather than read from ambient state so the engine stays a pure function.
type Config struct {
	// BakerRoleID is the reserved role billed for direct baker hours and for
	// decoration techniques that specify no role.
	BakerRoleID string
	// AssistantRoleID is the reserved role billed for direct assistant hours.
	AssistantRoleID string
	// DefaultMarkupPercent applies when the order sets no markup.
	DefaultMarkupPercent decimal.Decimal
}

// DefaultConfig returns the standard settings: "baker" and "assistant"
// reserved roles and no default markup.
func DefaultConfig() Config {
	return Config{
		BakerRoleID:     "baker",
		AssistantRoleID: "assistant",
	}
}

var (
	one     = decimal.NewFromInt(1)
	sixty   = decimal.NewFromInt(60)
	hundred = decimal.NewFromInt(100)
)
