// Command coupon-ingest bulk-loads promo codes from gzipped partner code
// lists. A code is accepted when it appears in at least two lists; accepted
// codes are inserted as PERCENT coupons with a shared validity window and
// discount value. Existing codes are left untouched.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/promo-engine/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	minCodeLen    = 8
	maxCodeLen    = 10
	insertBatch   = 5_000
)

const insertCodeSQL = `INSERT INTO coupons
	(code, discount_type, discount_value, start_date, end_date)
	VALUES ($1, 'PERCENT', $2, $3, $4)
	ON CONFLICT (code) DO NOTHING`

func main() {
	var (
		databaseURL string
		value       string
		validFrom   string
		validUntil  string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&value, "discount-value", "10", "percent discount for ingested codes")
	flag.StringVar(&validFrom, "valid-from", "", "validity window start, RFC 3339 (default: now)")
	flag.StringVar(&validUntil, "valid-until", "", "validity window end, RFC 3339 (default: now + 1 year)")
	flag.Parse()

	files := flag.Args()
	if len(files) < 2 {
		slog.Error("need at least two code list files: a code must appear in two lists to be accepted")
		os.Exit(1)
	}
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, files, databaseURL, value, validFrom, validUntil); err != nil {
		slog.Error("coupon ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon ingest completed successfully")
}

func run(ctx context.Context, files []string, databaseURL, value, validFrom, validUntil string) error {
	discount, err := decimal.NewFromString(value)
	if err != nil || discount.IsNegative() {
		return errors.Errorf("invalid discount value %q", value)
	}

	start, end, err := parseWindow(validFrom, validUntil)
	if err != nil {
		return err
	}

	slog.Info("pass 1: building bloom filters", slog.Int("files", len(files)))

	filters, err := buildBloomFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	slog.Info("pass 2: finding codes present in two or more lists")

	codes, err := findValidCodes(ctx, files, filters)
	if err != nil {
		return errors.Wrap(err, "find valid codes")
	}

	slog.Info("valid codes found", slog.Int("count", len(codes)))
	if len(codes) == 0 {
		return nil
	}

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return writeCodes(ctx, pool, codes, discount, start, end)
}

func parseWindow(validFrom, validUntil string) (start, end time.Time, err error) {
	start = time.Now().UTC()
	if validFrom != "" {
		if start, err = time.Parse(time.RFC3339, validFrom); err != nil {
			return start, end, errors.Wrap(err, "parse valid-from")
		}
	}
	end = start.AddDate(1, 0, 0)
	if validUntil != "" {
		if end, err = time.Parse(time.RFC3339, validUntil); err != nil {
			return start, end, errors.Wrap(err, "parse valid-until")
		}
	}
	if start.After(end) {
		return start, end, errors.New("valid-from must be <= valid-until")
	}
	return start, end, nil
}

// buildBloomFilters creates one bloom filter per file, concurrently.
func buildBloomFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
			err := scanCodes(ctx, path, func(code string) {
				filter.AddString(code)
			})
			if err != nil {
				return errors.Wrapf(err, "scan %s", path)
			}
			filters[i] = filter
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

// findValidCodes rescans every file and keeps codes that at least one other
// file's filter also contains. Bloom false positives can let a stray code
// through at the configured rate; ON CONFLICT on insert makes that harmless.
func findValidCodes(ctx context.Context, files []string, filters []*bloom.BloomFilter) ([]string, error) {
	seen := make(map[string]struct{})
	var codes []string

	for i, path := range files {
		err := scanCodes(ctx, path, func(code string) {
			if _, ok := seen[code]; ok {
				return
			}
			for j, filter := range filters {
				if j == i {
					continue
				}
				if filter.TestString(code) {
					seen[code] = struct{}{}
					codes = append(codes, code)
					return
				}
			}
		})
		if err != nil {
			return nil, errors.Wrapf(err, "scan %s", path)
		}
	}
	return codes, nil
}

// scanCodes streams a gzipped code list line by line, invoking fn for every
// code of acceptable length.
func scanCodes(ctx context.Context, path string, fn func(code string)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrap(err, "open gzip stream")
	}
	defer gz.Close()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		code := scanner.Text()
		if len(code) < minCodeLen || len(code) > maxCodeLen {
			continue
		}
		fn(code)
	}
	return scanner.Err()
}

// writeCodes inserts codes in batches over a single connection. Batches keep
// the round trips down without holding one long transaction over millions of
// rows.
func writeCodes(ctx context.Context, pool *pgxpool.Pool, codes []string, discount decimal.Decimal, start, end time.Time) error {
	inserted := int64(0)
	for offset := 0; offset < len(codes); offset += insertBatch {
		chunk := codes[offset:min(offset+insertBatch, len(codes))]

		batch := &pgx.Batch{}
		for _, code := range chunk {
			batch.Queue(insertCodeSQL, code, discount, start, end)
		}

		results := pool.SendBatch(ctx, batch)
		for range chunk {
			ct, err := results.Exec()
			if err != nil {
				results.Close()
				return errors.Wrap(err, "insert codes")
			}
			inserted += ct.RowsAffected()
		}
		if err := results.Close(); err != nil {
			return errors.Wrap(err, "close batch")
		}
	}

	slog.Info("codes inserted", slog.Int64("inserted", inserted))
	return nil
}
