package costing

import "github.com/shopspring/decimal"

// RoleHours is one aggregated labor group in the result: total hours and
// cost billed to a single role.
type RoleHours struct {
	RoleID string          `json:"roleId"`
	Hours  decimal.Decimal `json:"hours"`
	Cost   decimal.Decimal `json:"cost"`
}

// aggregateLabor folds the order's direct baker and assistant hours together
// with the decoration labor lines into per-role groups. Direct hours billed
// to a role a decoration also uses merge into the same group, so the
// breakdown never carries duplicate role entries.
//
// Group order is deterministic: the reserved baker and assistant roles
// first, then any further roles in first-appearance order of the decoration
// lines. The reserved roles must exist even when unused; their groups stay
// in the breakdown at zero so consumers see a stable shape.
func aggregateLabor(bakerHours, assistantHours decimal.Decimal, lines []decorationLine, cat Catalog, cfg Config) ([]RoleHours, decimal.Decimal, error) {
	baker, ok := cat.Roles[cfg.BakerRoleID]
	if !ok {
		return nil, decimal.Zero, &UnknownRoleError{RoleID: cfg.BakerRoleID}
	}
	assistant, ok := cat.Roles[cfg.AssistantRoleID]
	if !ok {
		return nil, decimal.Zero, &UnknownRoleError{RoleID: cfg.AssistantRoleID}
	}

	order := []string{cfg.BakerRoleID, cfg.AssistantRoleID}
	groups := map[string]*RoleHours{
		cfg.BakerRoleID: {
			RoleID: cfg.BakerRoleID,
			Hours:  bakerHours,
			Cost:   bakerHours.Mul(baker.HourlyRate),
		},
		cfg.AssistantRoleID: {
			RoleID: cfg.AssistantRoleID,
			Hours:  assistantHours,
			Cost:   assistantHours.Mul(assistant.HourlyRate),
		},
	}

	for _, line := range lines {
		g, ok := groups[line.roleID]
		if !ok {
			g = &RoleHours{RoleID: line.roleID}
			groups[line.roleID] = g
			order = append(order, line.roleID)
		}
		g.Hours = g.Hours.Add(line.laborHours)
		g.Cost = g.Cost.Add(line.laborCost)
	}

	breakdown := make([]RoleHours, 0, len(order))
	total := decimal.Zero
	for _, roleID := range order {
		g := groups[roleID]
		breakdown = append(breakdown, *g)
		total = total.Add(g.Cost)
	}

	return breakdown, total, nil
}
