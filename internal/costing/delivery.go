package costing

import "github.com/shopspring/decimal"

// DeliveryDetail is the display portion of a delivery calculation.
type DeliveryDetail struct {
	ZoneName          string           `json:"zoneName"`
	EstimatedDistance *decimal.Decimal `json:"estimatedDistance,omitempty"`
}

// deliveryFee computes the delivery cost for the order's explicitly selected
// zone: baseFee + perMileFee * distance, with a missing per-mile fee or
// distance treated as zero. A non-delivery order costs nothing and has no
// detail. Delivery without a zone is a validation error, never a free ride.
func deliveryFee(in *Input, zones map[string]Zone) (decimal.Decimal, *DeliveryDetail, error) {
	if !in.IsDelivery {
		return decimal.Zero, nil, nil
	}
	if in.DeliveryZoneID == nil || *in.DeliveryZoneID == "" {
		return decimal.Zero, nil, ErrDeliveryZoneRequired
	}

	zone, ok := zones[*in.DeliveryZoneID]
	if !ok {
		return decimal.Zero, nil, &MissingDeliveryZoneError{ZoneID: *in.DeliveryZoneID}
	}

	fee := zone.BaseFee
	if zone.PerMileFee != nil && in.DeliveryDistance != nil {
		fee = fee.Add(zone.PerMileFee.Mul(*in.DeliveryDistance))
	}

	return fee, &DeliveryDetail{
		ZoneName:          zone.Name,
		EstimatedDistance: in.DeliveryDistance,
	}, nil
}
