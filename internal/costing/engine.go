package costing

import "github.com/shopspring/decimal"

// Engine costs order and quote snapshots. It is stateless and safe for
// concurrent use; one Engine serves the whole process.
type Engine struct {
	cfg Config
}

// New creates an Engine with the given settings. Empty reserved role IDs
// fall back to the standard "baker" and "assistant" identifiers.
func New(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.BakerRoleID == "" {
		cfg.BakerRoleID = def.BakerRoleID
	}
	if cfg.AssistantRoleID == "" {
		cfg.AssistantRoleID = def.AssistantRoleID
	}
	return &Engine{cfg: cfg}
}

// Cost runs the full calculation over one materialized snapshot. It never
// mutates its inputs and never returns a partial result: any dangling
// reference in the snapshot fails the whole calculation with a typed error,
// because a silently zeroed component is worse than a visible failure in a
// pricing system.
func (e *Engine) Cost(in Input, cat Catalog) (*Result, error) {
	c := &calc{in: &in, cfg: e.cfg}

	// Tiers, in tier index order.
	totalServings := 0
	for _, t := range sortedTiers(in.Tiers) {
		cost, servings, err := tierCost(t, cat)
		if err != nil {
			return nil, err
		}
		c.recipeCost = c.recipeCost.Add(cost)
		totalServings += servings
	}

	// Decorations: material cost plus labor attribution.
	lines := make([]decorationLine, 0, len(in.Decorations))
	for _, d := range in.Decorations {
		line, err := resolveDecoration(d, cat, e.cfg)
		if err != nil {
			return nil, err
		}
		c.decorationMaterialCost = c.decorationMaterialCost.Add(line.materialCost)
		lines = append(lines, line)
	}

	breakdown, totalLaborCost, err := aggregateLabor(in.BakerHours, in.AssistantHours, lines, cat, e.cfg)
	if err != nil {
		return nil, err
	}
	c.totalLaborCost = totalLaborCost

	// Ancillary product lines with volume pricing.
	for _, item := range in.Items {
		c.itemsTotal = c.itemsTotal.Add(lineTotal(item, cat.Breakpoints))
	}

	// Delivery. Validated before the pricing pipeline runs.
	deliveryCost, deliveryDetail, err := deliveryFee(&in, cat.Zones)
	if err != nil {
		return nil, err
	}
	c.deliveryCost = deliveryCost

	if in.CustomTopperFee != nil {
		c.topperFee = *in.CustomTopperFee
	} else {
		c.topperFee = decimal.Zero
	}

	for _, step := range pricingPipeline {
		step.apply(c)
	}

	return buildResult(c, totalServings, breakdown, deliveryDetail), nil
}
