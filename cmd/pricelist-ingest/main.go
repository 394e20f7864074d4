// Command pricelist-ingest refreshes ingredient costs from gzipped supplier
// price lists. Each list is a CSV stream of "sku,cost" lines, one quote per
// line, and lists run to tens of millions of rows, so files are streamed
// twice instead of loaded: pass 1 builds a bloom filter of SKUs per file,
// pass 2 keeps only SKUs quoted by at least two suppliers and remembers the
// lowest quote. Ingredients missing from the corroborated set keep their
// current cost.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"math/bits"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/sugarmill/bakeshop/internal/storage/postgres"
)

const (
	bloomCapacity = 50_000_000
	bloomFPR      = 0.001
	progressEvery = 5_000_000
)

// quote is the cheapest corroborated price seen for one SKU, plus a bitmask
// of which supplier files quoted it.
type quote struct {
	cost decimal.Decimal
	mask uint
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing supplier *.gz price lists")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("price list ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("price list ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.gz"))
	if err != nil {
		return errors.Wrap(err, "list price list files")
	}
	sort.Strings(files)
	if len(files) < 2 {
		return errors.Errorf("need at least 2 supplier files in %s, found %d", dataDir, len(files))
	}

	slog.Info("pass 1: building SKU bloom filters", slog.Int("files", len(files)))

	filters, err := buildFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	slog.Info("pass 2: collecting corroborated quotes")

	quotes, err := collectQuotes(ctx, files, filters)
	if err != nil {
		return errors.Wrap(err, "collect quotes")
	}

	slog.Info("corroborated SKUs found", slog.Int("count", len(quotes)))
	if len(quotes) == 0 {
		slog.Info("no quotes to apply")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	return applyQuotes(ctx, pool, quotes)
}

// buildFilters builds one bloom filter of SKUs per file, concurrently.
func buildFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
			var count uint64

			err := streamGzLines(ctx, f, func(line string) {
				sku, _, ok := strings.Cut(line, ",")
				if !ok || sku == "" {
					return
				}
				filter.AddString(sku)
				count++
				if count%progressEvery == 0 {
					slog.Info("pass 1 progress", slog.Int("file", i+1), slog.Uint64("lines", count))
				}
			})
			if err != nil {
				return errors.Wrapf(err, "build filter for %s", f)
			}

			slog.Info("pass 1 complete", slog.Int("file", i+1), slog.Uint64("lines", count))
			filters[i] = filter
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

// collectQuotes re-streams each file keeping SKUs that another file's filter
// also contains. Results are merged so each SKU ends with the lowest quoted
// cost and the set bits of the files that quoted it; SKUs quoted by fewer
// than two files are dropped.
func collectQuotes(ctx context.Context, files []string, filters []*bloom.BloomFilter) (map[string]decimal.Decimal, error) {
	perFile := make([]map[string]quote, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			found := make(map[string]quote)
			fileBit := uint(1) << uint(i)
			var count uint64

			err := streamGzLines(ctx, f, func(line string) {
				count++
				if count%progressEvery == 0 {
					slog.Info("pass 2 progress", slog.Int("file", i+1), slog.Uint64("lines", count))
				}

				sku, rawCost, ok := strings.Cut(line, ",")
				if !ok || sku == "" {
					return
				}
				inOther := false
				for j, other := range filters {
					if j != i && other.TestString(sku) {
						inOther = true
						break
					}
				}
				if !inOther {
					return
				}
				cost, err := decimal.NewFromString(strings.TrimSpace(rawCost))
				if err != nil || cost.IsNegative() {
					return
				}
				if q, seen := found[sku]; !seen || cost.LessThan(q.cost) {
					found[sku] = quote{cost: cost, mask: fileBit}
				}
			})
			if err != nil {
				return errors.Wrapf(err, "scan %s", f)
			}

			slog.Info("pass 2 complete",
				slog.Int("file", i+1),
				slog.Uint64("lines", count),
				slog.Int("candidates", len(found)),
			)
			perFile[i] = found
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]quote)
	for _, found := range perFile {
		for sku, q := range found {
			m, seen := merged[sku]
			if !seen {
				merged[sku] = q
				continue
			}
			m.mask |= q.mask
			m.cost = decimal.Min(m.cost, q.cost)
			merged[sku] = m
		}
	}

	quotes := make(map[string]decimal.Decimal)
	for sku, q := range merged {
		if bits.OnesCount(q.mask) >= 2 {
			quotes[sku] = q.cost
		}
	}
	return quotes, nil
}

// streamGzLines opens a gzip-compressed file and calls fn for each line.
func streamGzLines(ctx context.Context, path string, fn func(line string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}
	return errors.Wrapf(scanner.Err(), "scan %s", path)
}

// applyQuotes updates costs for ingredients whose ID matches a corroborated
// SKU. Quotes for unknown SKUs are ignored, not inserted: the catalog decides
// what the bakery stocks.
func applyQuotes(ctx context.Context, pool *pgxpool.Pool, quotes map[string]decimal.Decimal) error {
	slog.Info("applying quotes", slog.Int("count", len(quotes)))

	var updated int
	for sku, cost := range quotes {
		tag, err := pool.Exec(ctx,
			`UPDATE ingredients SET cost_per_unit = $2 WHERE id = $1`,
			sku, cost)
		if err != nil {
			return errors.Wrapf(err, "update ingredient %s", sku)
		}
		if tag.RowsAffected() > 0 {
			updated++
		}
	}

	slog.Info("ingredient costs updated",
		slog.Int("updated", updated),
		slog.Int("ignored", len(quotes)-updated),
	)
	return nil
}
