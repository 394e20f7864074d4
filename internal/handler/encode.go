package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/sugarmill/bakeshop/internal/costing"
)

// encodeResult writes a costing result with a fixed field order and fixed
// decimal formatting. The result shape is a UI contract: same input, same
// bytes, so views and snapshot comparisons can rely on it.
func encodeResult(res *costing.Result) []byte {
	var e jx.Encoder

	e.ObjStart()

	e.FieldStart("totalServings")
	e.Int(res.TotalServings)
	e.FieldStart("recipeCost")
	money(&e, res.RecipeCost)
	e.FieldStart("decorationMaterialCost")
	money(&e, res.DecorationMaterialCost)

	e.FieldStart("laborBreakdown")
	e.ArrStart()
	for _, g := range res.LaborBreakdown {
		e.ObjStart()
		e.FieldStart("roleId")
		e.Str(g.RoleID)
		e.FieldStart("hours")
		e.RawStr(g.Hours.String())
		e.FieldStart("cost")
		money(&e, g.Cost)
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("topperFee")
	money(&e, res.TopperFee)
	e.FieldStart("baseCost")
	money(&e, res.BaseCost)
	e.FieldStart("suggestedPrice")
	money(&e, res.SuggestedPrice)
	e.FieldStart("discountAmount")
	money(&e, res.DiscountAmount)
	e.FieldStart("deliveryCost")
	money(&e, res.DeliveryCost)

	if res.Delivery != nil {
		e.FieldStart("delivery")
		e.ObjStart()
		e.FieldStart("zoneName")
		e.Str(res.Delivery.ZoneName)
		if res.Delivery.EstimatedDistance != nil {
			e.FieldStart("estimatedDistance")
			e.RawStr(res.Delivery.EstimatedDistance.String())
		}
		e.ObjEnd()
	}

	e.FieldStart("finalPrice")
	money(&e, res.FinalPrice)

	e.ObjEnd()

	return e.Bytes()
}

// money emits a currency value as a JSON number with exactly two fraction
// digits.
func money(e *jx.Encoder, d decimal.Decimal) {
	e.RawStr(d.StringFixed(2))
}

func writeResult(w http.ResponseWriter, res *costing.Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(encodeResult(res))
}
