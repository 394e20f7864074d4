package costing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// effectiveMultiplier resolves a tier slot's scale factor: the tier's own
// override wins, then the tier size default, then 1.
func effectiveMultiplier(override, sizeDefault *decimal.Decimal) decimal.Decimal {
	if override != nil {
		return *override
	}
	if sizeDefault != nil {
		return *sizeDefault
	}
	return one
}

// tierSlot pairs a recipe slot with its resolved multiplier.
type tierSlot struct {
	recipeID   *string
	multiplier decimal.Decimal
}

// tierCost sums the batter, filling, and frosting recipe costs of one tier.
// An empty slot contributes zero; a dangling recipe reference is fatal.
// It also returns the tier's serving count from its size.
func tierCost(t Tier, cat Catalog) (decimal.Decimal, int, error) {
	size, ok := cat.TierSizes[t.TierSizeID]
	if !ok {
		return decimal.Zero, 0, &UnknownTierSizeError{TierSizeID: t.TierSizeID}
	}

	slots := []tierSlot{
		{t.BatterRecipeID, effectiveMultiplier(t.BatterMultiplier, size.DefaultBatterMultiplier)},
		{t.FillingRecipeID, effectiveMultiplier(t.FillingMultiplier, size.DefaultFillingMultiplier)},
		{t.FrostingRecipeID, effectiveMultiplier(t.FrostingMultiplier, size.DefaultFrostingMultiplier)},
	}

	total := decimal.Zero
	for _, slot := range slots {
		if slot.recipeID == nil {
			// Legitimately empty slot (or incomplete input; the UI
			// distinguishes, the engine prices it at zero either way).
			continue
		}
		r, ok := cat.Recipes[*slot.recipeID]
		if !ok {
			return decimal.Zero, 0, &UnknownRecipeError{RecipeID: *slot.recipeID}
		}
		c, err := recipeCost(&r, slot.multiplier, cat.Ingredients)
		if err != nil {
			return decimal.Zero, 0, err
		}
		total = total.Add(c)
	}

	return total, size.Servings, nil
}

// sortedTiers returns the tiers ordered by tier index. Ordering affects
// presentation only, never the total, but keeping it canonical makes
// repeated runs reproduce identical intermediate traces.
func sortedTiers(tiers []Tier) []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TierIndex < out[j].TierIndex
	})
	return out
}
