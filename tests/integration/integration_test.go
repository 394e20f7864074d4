//go:build integration

// Package integration spins up a real PostgreSQL container, wires the full
// service stack against it, and exercises the HTTP API end to end. Request
// and response bodies are raw JSON so the tests pin the wire contract, not
// the Go types behind it.
package integration

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/sugarmill/bakeshop/internal/costing"
	"github.com/sugarmill/bakeshop/internal/handler"
	"github.com/sugarmill/bakeshop/internal/order"
	"github.com/sugarmill/bakeshop/internal/storage/postgres"
	"github.com/sugarmill/bakeshop/pkg/health"
)

const (
	testAPIKey = "integration-test-key"
	testPepper = "test-pepper-for-integration"
)

var (
	baseURL    string
	httpClient *http.Client
)

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type convertResponse struct {
	OrderID        string `json:"orderId"`
	QuoteID        string `json:"quoteId"`
	EstimatedHours string `json:"estimatedHours"`
	FinalPrice     string `json:"finalPrice"`
}

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pg, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("bakeshop"),
		tcpostgres.WithUsername("bakeshop"),
		tcpostgres.WithPassword("bakeshop"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() {
		if err := pg.Terminate(context.Background()); err != nil {
			log.Printf("terminate postgres: %v", err)
		}
	}()

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("connection string: %v", err)
	}

	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		log.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		log.Fatalf("run migrations: %v", err)
	}
	if err := seed(ctx, pool); err != nil {
		log.Fatalf("seed: %v", err)
	}

	engine := costing.New(costing.DefaultConfig())
	svc := order.NewService(engine,
		postgres.NewSnapshotRepository(pool),
		postgres.NewQuoteRepository(pool),
		postgres.NewOrderRepository(pool),
	)
	authn := handler.APIKeyAuth(postgres.NewAPIKeyRepository(pool), []byte(testPepper))

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.Start(ctx, 10*time.Second)
	defer healthSvc.Stop()
	healthSvc.SetReady(true)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", http.StripPrefix("/api", handler.NewHandler(svc).Routes(authn)))

	server := httptest.NewServer(mux)
	defer server.Close()

	baseURL = server.URL
	httpClient = &http.Client{Timeout: 10 * time.Second}

	return m.Run()
}

// seed loads the catalog fixture plus one order and one accepted quote. The
// numbers deliberately mirror the unit test fixtures: the sponge recipe
// costs 1.75, the drip decoration adds 6.00 and 0.4 baker hours.
func seed(ctx context.Context, pool *pgxpool.Pool) error {
	mac := hmac.New(sha256.New, []byte(testPepper))
	mac.Write([]byte(testAPIKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	statements := []struct {
		sql  string
		args []any
	}{
		{sql: `INSERT INTO labor_roles (id, name, hourly_rate) VALUES
			('baker', 'Baker', 30), ('assistant', 'Assistant', 18)`},
		{sql: `INSERT INTO ingredients (id, name, unit, cost_per_unit) VALUES
			('flour', 'Flour', 'g', 0.002), ('sugar', 'Sugar', 'g', 0.003)`},
		{sql: `INSERT INTO recipes (id, name, type) VALUES ('sponge', 'Sponge', 'batter')`},
		{sql: `INSERT INTO recipe_ingredients (recipe_id, ingredient_id, quantity) VALUES
			('sponge', 'flour', 500), ('sponge', 'sugar', 250)`},
		{sql: `INSERT INTO tier_sizes (id, name, servings) VALUES ('eight-inch', '8" round', 20)`},
		{sql: `INSERT INTO decoration_techniques (id, name, cost_per_unit, labor_minutes, unit) VALUES
			('drip', 'Chocolate drip', 6, 24, 'cake')`},
		{sql: `INSERT INTO delivery_zones (id, name, base_fee, per_mile_fee) VALUES
			('metro', 'Metro', 15, 1.5)`},
		{sql: `INSERT INTO cake_orders (id, baker_hours, assistant_hours, markup_percent) VALUES
			('ord-1', 2, 1, 50)`},
		{sql: `INSERT INTO order_tiers (order_id, tier_index, tier_size_id, batter_recipe_id) VALUES
			('ord-1', 0, 'eight-inch', 'sponge')`},
		{sql: `INSERT INTO order_decorations (order_id, technique_id, quantity) VALUES
			('ord-1', 'drip', 1)`},
		{sql: `INSERT INTO quotes (id, customer_name, status, input) VALUES
			('q-1', 'Dana', 'accepted', $1)`,
			args: []any{quoteInputJSON()}},
		{sql: `INSERT INTO api_keys (id, key_hash, name, scopes) VALUES
			('it', $1, 'Integration key', '{convert_quote}')`,
			args: []any{keyHash}},
	}
	for _, s := range statements {
		if _, err := pool.Exec(ctx, s.sql, s.args...); err != nil {
			return err
		}
	}
	return nil
}

// quoteInputJSON is the same order shape as ord-1, as a quote input document.
func quoteInputJSON() []byte {
	return []byte(`{
		"tiers": [{"tierIndex": 0, "tierSizeId": "eight-inch", "batterRecipeId": "sponge"}],
		"decorations": [{"techniqueId": "drip", "quantity": 1}],
		"bakerHours": "2",
		"assistantHours": "1",
		"markupPercent": "50"
	}`)
}

// HTTP helpers.

func doGet(t *testing.T, path string) *http.Response {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, baseURL+path, nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func doPost(t *testing.T, path string, body []byte, apiKey string) *http.Response {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, baseURL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("api_key", apiKey)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(data)
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return v
}
