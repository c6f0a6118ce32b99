// Command seed-coupons loads a catalog seed file into the database. Each
// entry runs through the same payload validation as the create-coupon API;
// entries whose code already exists are skipped.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/xenking/promo-engine/internal/domain/coupon"
	"github.com/xenking/promo-engine/internal/repository"
)

type seedFile struct {
	Coupons []coupon.Payload `json:"coupons"`
}

func main() {
	var (
		databaseURL string
		seedPath    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&seedPath, "seed-file", "db/seed/coupons.json", "path to coupons JSON file")
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

	if err := run(ctx, databaseURL, seedPath); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, seedPath string) error {
	data, err := os.ReadFile(seedPath)
	if err != nil {
		return errors.Wrap(err, "read seed file")
	}

	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return errors.Wrap(err, "parse seed file")
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	catalog := repository.NewCouponRepository(pool)

	inserted, skipped := 0, 0
	for i := range seed.Coupons {
		p := &seed.Coupons[i]

		c, verr := coupon.Validate(p)
		if verr != nil {
			return errors.Errorf("invalid seed coupon %q: %s", p.Code, verr.Message)
		}

		switch err := catalog.Insert(ctx, *c); {
		case err == nil:
			inserted++
		case errors.Is(err, coupon.ErrDuplicateCode):
			slog.Info("coupon already exists, skipping", slog.String("code", c.Code))
			skipped++
		default:
			return errors.Wrapf(err, "insert coupon %q", c.Code)
		}
	}

	slog.Info("seeded coupons", slog.Int("inserted", inserted), slog.Int("skipped", skipped))
	return nil
}
