package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/promo-engine/internal/domain/coupon"
)

const (
	listCouponsSQL = `SELECT code, discount_type, discount_value, start_date, end_date,
		max_discount_amount, usage_limit_per_user, eligibility
		FROM coupons ORDER BY created_at, code`

	getCouponByCodeSQL = `SELECT code, discount_type, discount_value, start_date, end_date,
		max_discount_amount, usage_limit_per_user, eligibility
		FROM coupons WHERE code = $1`

	insertCouponSQL = `INSERT INTO coupons
		(code, discount_type, discount_value, start_date, end_date,
		 max_discount_amount, usage_limit_per_user, eligibility)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
)

var _ coupon.Catalog = (*CouponRepository)(nil)

// CouponRepository implements coupon.Catalog backed by PostgreSQL. The
// coupons table is append-only; the code primary key enforces uniqueness.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// List returns the full catalog in insertion order.
func (r *CouponRepository) List(ctx context.Context) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}

	coupons, err := pgx.CollectRows(rows, scanCoupon)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return coupons, nil
}

// FindByCode looks up a coupon by its code. Returns coupon.ErrNotFound when
// no such coupon exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &c, nil
}

// Insert appends a coupon to the catalog. A unique-violation on the code
// primary key maps to coupon.ErrDuplicateCode.
func (r *CouponRepository) Insert(ctx context.Context, c coupon.Coupon) error {
	eligibility, err := marshalEligibility(c.Eligibility)
	if err != nil {
		return fmt.Errorf("encoding eligibility for coupon %q: %w", c.Code, err)
	}

	_, err = r.pool.Exec(ctx, insertCouponSQL,
		c.Code, string(c.DiscountType), c.DiscountValue, c.StartDate, c.EndDate,
		c.MaxDiscountAmount, c.UsageLimitPerUser, eligibility,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return coupon.ErrDuplicateCode
		}
		return fmt.Errorf("inserting coupon %q: %w", c.Code, err)
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c            coupon.Coupon
		discountType string
		eligibility  []byte
	)
	err := row.Scan(
		&c.Code, &discountType, &c.DiscountValue, &c.StartDate, &c.EndDate,
		&c.MaxDiscountAmount, &c.UsageLimitPerUser, &eligibility,
	)
	if err != nil {
		return coupon.Coupon{}, err
	}

	c.DiscountType = coupon.DiscountType(discountType)
	if len(eligibility) > 0 {
		c.Eligibility = &coupon.Eligibility{}
		if err := json.Unmarshal(eligibility, c.Eligibility); err != nil {
			return coupon.Coupon{}, fmt.Errorf("decoding eligibility for coupon %q: %w", c.Code, err)
		}
	}
	return c, nil
}

func marshalEligibility(e *coupon.Eligibility) ([]byte, error) {
	if e == nil {
		return nil, nil
	}
	return json.Marshal(e)
}
