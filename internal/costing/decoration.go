package costing

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// effectiveQuantityFns maps each decoration unit to its quantity semantics.
// Keeping the dispatch as a closed table makes the unit handling exhaustive
// and adding a unit a one-place change.
var effectiveQuantityFns = map[DecorationUnit]func(qty int, tierIndices []int) int{
	UnitSingle: func(qty int, _ []int) int { return qty },
	UnitCake:   func(qty int, _ []int) int { return qty },
	UnitSet:    func(qty int, _ []int) int { return qty },
	UnitTier: func(qty int, tierIndices []int) int {
		// No tier selection means the decoration applies to exactly one
		// tier. Likely-incomplete input; the caller flags it, the engine
		// still prices it.
		n := len(tierIndices)
		if n < 1 {
			n = 1
		}
		return qty * n
	},
}

// decorationLine is the resolved cost of one decoration: its material cost
// plus the labor it adds, attributed to a role.
type decorationLine struct {
	materialCost decimal.Decimal
	laborHours   decimal.Decimal
	laborCost    decimal.Decimal
	roleID       string
}

// resolveDecoration computes the material and labor cost of one decoration
// line. The effective unit is the order's override when present, else the
// technique's own unit. Techniques without a labor role bill the default
// baker role.
func resolveDecoration(d Decoration, cat Catalog, cfg Config) (decorationLine, error) {
	tech, ok := cat.Techniques[d.TechniqueID]
	if !ok {
		return decorationLine{}, &UnknownTechniqueError{TechniqueID: d.TechniqueID}
	}

	unit := tech.Unit
	if d.UnitOverride != nil {
		unit = *d.UnitOverride
	}
	quantityFn, ok := effectiveQuantityFns[unit]
	if !ok {
		return decorationLine{}, errors.Errorf("unsupported decoration unit %q", unit)
	}
	qty := decimal.NewFromInt(int64(quantityFn(d.Quantity, d.TierIndices)))

	roleID := cfg.BakerRoleID
	if tech.LaborRoleID != nil {
		roleID = *tech.LaborRoleID
	}
	role, ok := cat.Roles[roleID]
	if !ok {
		return decorationLine{}, &UnknownRoleError{RoleID: roleID}
	}

	hours := decimal.NewFromInt(int64(tech.LaborMinutes)).Mul(qty).Div(sixty)

	return decorationLine{
		materialCost: tech.CostPerUnit.Mul(qty),
		laborHours:   hours,
		laborCost:    hours.Mul(role.HourlyRate),
		roleID:       roleID,
	}, nil
}
