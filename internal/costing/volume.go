package costing

import "github.com/shopspring/decimal"

// lineTotal resolves quantity-tiered pricing for one ancillary line item and
// returns its total. Item-specific breakpoints take precedence over the
// product-type fallback; a matched fixed price-per-unit replaces the unit
// price outright and beats a percentage discount. No match leaves the unit
// price unchanged.
func lineTotal(item LineItem, breakpoints map[string][]Breakpoint) decimal.Decimal {
	bp := matchBreakpoint(breakpoints[item.TargetID], item.Quantity)
	if bp == nil && item.ProductTypeID != "" {
		bp = matchBreakpoint(breakpoints[item.ProductTypeID], item.Quantity)
	}

	unitPrice := item.UnitPrice
	if bp != nil {
		switch {
		case bp.PricePerUnit != nil:
			unitPrice = *bp.PricePerUnit
		case bp.DiscountPercent != nil:
			unitPrice = unitPrice.Mul(hundred.Sub(*bp.DiscountPercent)).Div(hundred)
		}
	}

	return unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// matchBreakpoint returns the breakpoint whose range contains qty. Ranges
// are authored non-overlapping, but when they do overlap the highest
// MinQuantity wins, so the resolver stays deterministic on bad data.
func matchBreakpoint(bps []Breakpoint, qty int) *Breakpoint {
	var best *Breakpoint
	for i := range bps {
		bp := &bps[i]
		if qty < bp.MinQuantity {
			continue
		}
		if bp.MaxQuantity != nil && qty > *bp.MaxQuantity {
			continue
		}
		if best == nil || bp.MinQuantity > best.MinQuantity {
			best = bp
		}
	}
	return best
}
