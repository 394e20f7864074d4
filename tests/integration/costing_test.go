//go:build integration

package integration

import (
	"net/http"
	"testing"
)

// fixtureCostBody is the exact costing response for the seeded order and
// quote: both describe the same cake, so both endpoints must return these
// bytes.
const fixtureCostBody = `{"totalServings":20,"recipeCost":1.75,"decorationMaterialCost":6.00,` +
	`"laborBreakdown":[{"roleId":"baker","hours":2.4,"cost":72.00},` +
	`{"roleId":"assistant","hours":1,"cost":18.00}],` +
	`"topperFee":0.00,"baseCost":97.75,"suggestedPrice":146.63,` +
	`"discountAmount":0.00,"deliveryCost":0.00,"finalPrice":146.63}`

func TestCostOrder(t *testing.T) {
	resp := doGet(t, "/api/orders/ord-1/cost")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
	if body := readBody(t, resp); body != fixtureCostBody {
		t.Fatalf("body mismatch:\n got: %s\nwant: %s", body, fixtureCostBody)
	}
}

func TestCostOrder_NotFound(t *testing.T) {
	resp := doGet(t, "/api/orders/no-such-order/cost")

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	body := decodeJSON[errorResponse](t, resp)
	if body.Code != http.StatusNotFound {
		t.Fatalf("expected code 404 in body, got %d", body.Code)
	}
}

func TestCostQuote_MatchesOrderCosting(t *testing.T) {
	resp := doPost(t, "/api/quotes/cost", quoteInputJSON(), "")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
	if body := readBody(t, resp); body != fixtureCostBody {
		t.Fatalf("quote costing diverged from order costing:\n got: %s\nwant: %s", body, fixtureCostBody)
	}
}

func TestCostQuote_Deterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		resp := doPost(t, "/api/quotes/cost", quoteInputJSON(), "")
		if body := readBody(t, resp); body != fixtureCostBody {
			t.Fatalf("run %d diverged:\n got: %s\nwant: %s", i+1, body, fixtureCostBody)
		}
	}
}

func TestCostQuote_Delivery(t *testing.T) {
	input := []byte(`{
		"tiers": [{"tierIndex": 0, "tierSizeId": "eight-inch", "batterRecipeId": "sponge"}],
		"decorations": [{"techniqueId": "drip", "quantity": 1}],
		"bakerHours": "2",
		"assistantHours": "1",
		"markupPercent": "50",
		"isDelivery": true,
		"deliveryZoneId": "metro",
		"deliveryDistance": "10"
	}`)

	resp := doPost(t, "/api/quotes/cost", input, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}

	// Metro: 15 base + 1.5 x 10 miles = 30.00 on top of 146.63.
	want := `{"totalServings":20,"recipeCost":1.75,"decorationMaterialCost":6.00,` +
		`"laborBreakdown":[{"roleId":"baker","hours":2.4,"cost":72.00},` +
		`{"roleId":"assistant","hours":1,"cost":18.00}],` +
		`"topperFee":0.00,"baseCost":97.75,"suggestedPrice":146.63,` +
		`"discountAmount":0.00,"deliveryCost":30.00,` +
		`"delivery":{"zoneName":"Metro","estimatedDistance":10},` +
		`"finalPrice":176.63}`
	if body := readBody(t, resp); body != want {
		t.Fatalf("body mismatch:\n got: %s\nwant: %s", body, want)
	}
}

func TestCostQuote_DeliveryWithoutZone(t *testing.T) {
	input := []byte(`{
		"tiers": [{"tierIndex": 0, "tierSizeId": "eight-inch", "batterRecipeId": "sponge"}],
		"bakerHours": "1",
		"assistantHours": "0",
		"isDelivery": true
	}`)

	resp := doPost(t, "/api/quotes/cost", input, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
}

func TestCostQuote_UnknownTechnique(t *testing.T) {
	input := []byte(`{
		"tiers": [{"tierIndex": 0, "tierSizeId": "eight-inch", "batterRecipeId": "sponge"}],
		"decorations": [{"techniqueId": "gold-leaf", "quantity": 1}],
		"bakerHours": "1",
		"assistantHours": "0"
	}`)

	resp := doPost(t, "/api/quotes/cost", input, "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
}

func TestConvertQuote(t *testing.T) {
	// Unauthenticated conversion is rejected.
	resp := doPost(t, "/api/quotes/q-1/convert", nil, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Authenticated conversion creates an order.
	resp = doPost(t, "/api/quotes/q-1/convert", nil, testAPIKey)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
	converted := decodeJSON[convertResponse](t, resp)
	if converted.QuoteID != "q-1" {
		t.Fatalf("expected quote q-1, got %q", converted.QuoteID)
	}
	if converted.EstimatedHours != "3.4" {
		t.Fatalf("expected 3.4 estimated hours, got %q", converted.EstimatedHours)
	}
	if converted.FinalPrice != "146.63" {
		t.Fatalf("expected final price 146.63, got %q", converted.FinalPrice)
	}

	// The new order costs to the same result as the quote did.
	resp = doGet(t, "/api/orders/"+converted.OrderID+"/cost")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for converted order, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
	if body := readBody(t, resp); body != fixtureCostBody {
		t.Fatalf("converted order costs differently:\n got: %s\nwant: %s", body, fixtureCostBody)
	}

	// A second conversion is a conflict.
	resp = doPost(t, "/api/quotes/q-1/convert", nil, testAPIKey)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on reconversion, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}
