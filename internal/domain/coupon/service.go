package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Service owns the catalog and usage collaborators and exposes the coupon
// operations the request layer calls. The evaluation itself stays in the pure
// package-level functions; Service only supplies the snapshots and the clock.
type Service struct {
	catalog Catalog
	usage   UsageStore
	now     func() time.Time
}

// NewService creates a Service backed by the given catalog and usage store.
func NewService(catalog Catalog, usage UsageStore) *Service {
	return &Service{catalog: catalog, usage: usage, now: time.Now}
}

// Create validates the payload and appends the resulting coupon to the
// catalog. It returns a *ValidationError for malformed payloads and
// ErrDuplicateCode when the code is already taken. Nothing is inserted on
// failure.
func (s *Service) Create(ctx context.Context, p *Payload) (*Coupon, error) {
	c, verr := Validate(p)
	if verr != nil {
		return nil, verr
	}

	if _, err := s.catalog.FindByCode(ctx, c.Code); err == nil {
		return nil, ErrDuplicateCode
	} else if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "check coupon code")
	}

	// Insert still reports ErrDuplicateCode on a concurrent create racing
	// past the lookup.
	if err := s.catalog.Insert(ctx, *c); err != nil {
		return nil, errors.Wrap(err, "insert coupon")
	}
	return c, nil
}

// List returns the full catalog.
func (s *Service) List(ctx context.Context) ([]Coupon, error) {
	coupons, err := s.catalog.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list coupons")
	}
	return coupons, nil
}

// BestFor snapshots the catalog and the user's usage counts, then runs the
// deterministic best-coupon selection at the current instant.
func (s *Service) BestFor(ctx context.Context, user User, cart Cart) (Result, error) {
	catalog, err := s.catalog.List(ctx)
	if err != nil {
		return Result{}, errors.Wrap(err, "list coupons")
	}

	usage, err := s.usage.CountsByUser(ctx, user.ID)
	if err != nil {
		return Result{}, errors.Wrap(err, "load usage counts")
	}

	return SelectBest(user, cart, catalog, usage, s.now()), nil
}

// RecordUsage bumps the (code, user) redemption counter by one and returns
// the new count. It is a raw counter increment: it does not check that the
// coupon exists or that the user was eligible.
func (s *Service) RecordUsage(ctx context.Context, code, userID string) (int64, error) {
	count, err := s.usage.Increment(ctx, code, userID)
	if err != nil {
		return 0, errors.Wrap(err, "increment usage")
	}
	return count, nil
}
