package costing

import "github.com/shopspring/decimal"

// calc accumulates the running figures of one engine pass. The component
// fields are filled by the orchestrator before the pricing pipeline runs;
// the pipeline fills the derived fields.
type calc struct {
	in  *Input
	cfg Config

	// Components, full precision.
	recipeCost             decimal.Decimal
	decorationMaterialCost decimal.Decimal
	totalLaborCost         decimal.Decimal
	topperFee              decimal.Decimal
	itemsTotal             decimal.Decimal
	deliveryCost           decimal.Decimal

	// Derived by the pipeline.
	baseCost       decimal.Decimal
	suggestedPrice decimal.Decimal
	discountAmount decimal.Decimal
	finalPrice     decimal.Decimal
}

// markupPercent resolves the order's markup, falling back to the configured
// default when the order sets none.
func (c *calc) markupPercent() decimal.Decimal {
	if c.in.MarkupPercent != nil {
		return *c.in.MarkupPercent
	}
	return c.cfg.DefaultMarkupPercent
}

// pricingStep is one named stage of the pricing sequence.
type pricingStep struct {
	name  string
	apply func(*calc)
}

// pricingPipeline is the fixed order of operations, written out as data so
// the sequence is visible in review and testable as such. The contract:
// markup applies to the cake base cost; the order-level discount applies to
// the marked-up cake price only; ancillary item totals and delivery are
// added after the discount and are never discounted.
var pricingPipeline = []pricingStep{
	{
		name: "base cost",
		apply: func(c *calc) {
			c.baseCost = c.recipeCost.
				Add(c.decorationMaterialCost).
				Add(c.totalLaborCost).
				Add(c.topperFee)
		},
	},
	{
		name: "markup",
		apply: func(c *calc) {
			c.suggestedPrice = c.baseCost.Mul(one.Add(c.markupPercent().Div(hundred)))
		},
	},
	{
		name: "order discount",
		apply: func(c *calc) {
			c.discountAmount = orderDiscount(c.in, c.suggestedPrice)
		},
	},
	{
		name: "final total",
		apply: func(c *calc) {
			c.finalPrice = c.suggestedPrice.
				Sub(c.discountAmount).
				Add(c.itemsTotal).
				Add(c.deliveryCost)
		},
	},
}

// orderDiscount computes the order-level discount against the suggested
// price. A fixed discount is clamped at the suggested price so the cake
// price can never go negative. Absent discount fields mean zero.
func orderDiscount(in *Input, suggestedPrice decimal.Decimal) decimal.Decimal {
	if in.DiscountType == nil || in.DiscountValue == nil {
		return decimal.Zero
	}
	switch *in.DiscountType {
	case DiscountPercent:
		return suggestedPrice.Mul(in.DiscountValue.Div(hundred))
	case DiscountFixed:
		return decimal.Min(*in.DiscountValue, suggestedPrice)
	default:
		return decimal.Zero
	}
}
