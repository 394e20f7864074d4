package costing

import "github.com/shopspring/decimal"

// Result is the complete costed view of an order or quote. It is a value
// object with no identity: recomputed on every call, never cached across
// input mutations. Currency fields are rounded to cents exactly once, when
// the Result is built; hours keep their exact values so the total survives
// a quote-to-order round trip unchanged.
type Result struct {
	TotalServings          int              `json:"totalServings"`
	RecipeCost             decimal.Decimal  `json:"recipeCost"`
	DecorationMaterialCost decimal.Decimal  `json:"decorationMaterialCost"`
	LaborBreakdown         []RoleHours      `json:"laborBreakdown"`
	TopperFee              decimal.Decimal  `json:"topperFee"`
	BaseCost               decimal.Decimal  `json:"baseCost"`
	SuggestedPrice         decimal.Decimal  `json:"suggestedPrice"`
	DiscountAmount         decimal.Decimal  `json:"discountAmount"`
	DeliveryCost           decimal.Decimal  `json:"deliveryCost"`
	Delivery               *DeliveryDetail  `json:"delivery,omitempty"`
	FinalPrice             decimal.Decimal  `json:"finalPrice"`
}

// EstimatedHours returns the total labor hours across all roles. Quote
// conversion persists this value on the order it creates.
func (r *Result) EstimatedHours() decimal.Decimal {
	sum := decimal.Zero
	for _, g := range r.LaborBreakdown {
		sum = sum.Add(g.Hours)
	}
	return sum
}

// buildResult rounds the accumulated figures into the presentation shape.
func buildResult(c *calc, totalServings int, breakdown []RoleHours, delivery *DeliveryDetail) *Result {
	rounded := make([]RoleHours, len(breakdown))
	for i, g := range breakdown {
		rounded[i] = RoleHours{
			RoleID: g.RoleID,
			Hours:  g.Hours,
			Cost:   g.Cost.Round(2),
		}
	}

	return &Result{
		TotalServings:          totalServings,
		RecipeCost:             c.recipeCost.Round(2),
		DecorationMaterialCost: c.decorationMaterialCost.Round(2),
		LaborBreakdown:         rounded,
		TopperFee:              c.topperFee.Round(2),
		BaseCost:               c.baseCost.Round(2),
		SuggestedPrice:         c.suggestedPrice.Round(2),
		DiscountAmount:         c.discountAmount.Round(2),
		DeliveryCost:           c.deliveryCost.Round(2),
		Delivery:               delivery,
		FinalPrice:             c.finalPrice.Round(2),
	}
}
