package costing

import "github.com/shopspring/decimal"

// recipeCost returns the monetary cost of one recipe instance at the given
// scale multiplier: sum(quantity * costPerUnit) * multiplier. A nil recipe
// costs nothing. No rounding happens here.
func recipeCost(r *Recipe, multiplier decimal.Decimal, ingredients map[string]Ingredient) (decimal.Decimal, error) {
	if r == nil {
		return decimal.Zero, nil
	}

	sum := decimal.Zero
	for _, line := range r.Ingredients {
		ing, ok := ingredients[line.IngredientID]
		if !ok {
			return decimal.Zero, &MissingIngredientError{
				RecipeID:     r.ID,
				IngredientID: line.IngredientID,
			}
		}
		sum = sum.Add(line.Quantity.Mul(ing.CostPerUnit))
	}

	return sum.Mul(multiplier), nil
}
