package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/promo-engine/internal/domain/coupon"
)

const (
	countsByUserSQL = `SELECT code, uses FROM coupon_usage WHERE user_id = $1`

	incrementUsageSQL = `INSERT INTO coupon_usage (code, user_id, uses)
		VALUES ($1, $2, 1)
		ON CONFLICT (code, user_id) DO UPDATE SET uses = coupon_usage.uses + 1
		RETURNING uses`
)

var _ coupon.UsageStore = (*UsageRepository)(nil)

// UsageRepository implements coupon.UsageStore backed by PostgreSQL. The
// upsert in Increment gives per-key atomicity, so concurrent increments for
// the same (code, user) never lose updates.
type UsageRepository struct {
	pool *pgxpool.Pool
}

// NewUsageRepository returns a UsageRepository that uses the given pool.
func NewUsageRepository(pool *pgxpool.Pool) *UsageRepository {
	return &UsageRepository{pool: pool}
}

// CountsByUser returns the user's redemption counters keyed by coupon code.
func (r *UsageRepository) CountsByUser(ctx context.Context, userID string) (coupon.UsageCounts, error) {
	rows, err := r.pool.Query(ctx, countsByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("loading usage for user %q: %w", userID, err)
	}
	defer rows.Close()

	counts := make(coupon.UsageCounts)
	for rows.Next() {
		var (
			code string
			uses int64
		)
		if err := rows.Scan(&code, &uses); err != nil {
			return nil, fmt.Errorf("loading usage for user %q: %w", userID, err)
		}
		counts[code] = uses
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading usage for user %q: %w", userID, err)
	}
	return counts, nil
}

// Increment atomically bumps the (code, user) counter and returns the new
// count.
func (r *UsageRepository) Increment(ctx context.Context, code, userID string) (int64, error) {
	var uses int64
	err := r.pool.QueryRow(ctx, incrementUsageSQL, code, userID).Scan(&uses)
	if err != nil {
		return 0, fmt.Errorf("incrementing usage for coupon %q user %q: %w", code, userID, err)
	}
	return uses, nil
}
