package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCatalog struct {
	coupons   []Coupon
	listErr   error
	insertErr error
	inserted  []Coupon
}

func (m *mockCatalog) List(_ context.Context) ([]Coupon, error) {
	return m.coupons, m.listErr
}

func (m *mockCatalog) FindByCode(_ context.Context, code string) (*Coupon, error) {
	for i := range m.coupons {
		if m.coupons[i].Code == code {
			return &m.coupons[i], nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockCatalog) Insert(_ context.Context, c Coupon) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.coupons = append(m.coupons, c)
	m.inserted = append(m.inserted, c)
	return nil
}

type mockUsage struct {
	counts       UsageCounts
	countsErr    error
	incremented  []string
	incrementErr error
}

func (m *mockUsage) CountsByUser(_ context.Context, _ string) (UsageCounts, error) {
	return m.counts, m.countsErr
}

func (m *mockUsage) Increment(_ context.Context, code, userID string) (int64, error) {
	if m.incrementErr != nil {
		return 0, m.incrementErr
	}
	m.incremented = append(m.incremented, code+":"+userID)
	return m.counts[code] + 1, nil
}

func newTestService(catalog *mockCatalog, usage *mockUsage) *Service {
	s := NewService(catalog, usage)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestService_Create(t *testing.T) {
	t.Run("valid payload is inserted", func(t *testing.T) {
		catalog := &mockCatalog{}
		svc := newTestService(catalog, &mockUsage{})

		c, err := svc.Create(context.Background(), validPayload())
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, "SAVE10", c.Code)
		require.Len(t, catalog.inserted, 1)
	})

	t.Run("invalid payload reports validation error", func(t *testing.T) {
		catalog := &mockCatalog{}
		svc := newTestService(catalog, &mockUsage{})

		p := validPayload()
		p.DiscountType = "BOGO"

		c, err := svc.Create(context.Background(), p)
		assert.Nil(t, c)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, RuleDiscountType, verr.Kind)
		assert.Empty(t, catalog.inserted)
	})

	t.Run("duplicate code rejected", func(t *testing.T) {
		catalog := &mockCatalog{coupons: []Coupon{active("SAVE10", DiscountFlat, "10")}}
		svc := newTestService(catalog, &mockUsage{})

		c, err := svc.Create(context.Background(), validPayload())
		assert.Nil(t, c)
		require.ErrorIs(t, err, ErrDuplicateCode)
		assert.Empty(t, catalog.inserted)
	})

	t.Run("insert race still surfaces duplicate", func(t *testing.T) {
		catalog := &mockCatalog{insertErr: ErrDuplicateCode}
		svc := newTestService(catalog, &mockUsage{})

		_, err := svc.Create(context.Background(), validPayload())
		require.ErrorIs(t, err, ErrDuplicateCode)
	})
}

func TestService_List(t *testing.T) {
	catalog := &mockCatalog{coupons: []Coupon{
		active("A", DiscountFlat, "1"),
		active("B", DiscountFlat, "2"),
	}}
	svc := newTestService(catalog, &mockUsage{})

	coupons, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, coupons, 2)
}

func TestService_BestFor(t *testing.T) {
	cart := Cart{Items: []Item{{UnitPrice: d("50"), Quantity: 1}}}

	t.Run("selects using catalog and usage snapshots", func(t *testing.T) {
		limited := active("LIMITED", DiscountFlat, "40")
		limited.UsageLimitPerUser = i64(1)

		catalog := &mockCatalog{coupons: []Coupon{limited, active("SAVE10", DiscountFlat, "10")}}
		usage := &mockUsage{counts: UsageCounts{"LIMITED": 1}}
		svc := newTestService(catalog, usage)

		got, err := svc.BestFor(context.Background(), basicUser, cart)
		require.NoError(t, err)
		require.NotNil(t, got.Coupon)
		assert.Equal(t, "SAVE10", got.Coupon.Code)
	})

	t.Run("catalog error propagates", func(t *testing.T) {
		catalog := &mockCatalog{listErr: errors.New("connection reset")}
		svc := newTestService(catalog, &mockUsage{})

		_, err := svc.BestFor(context.Background(), basicUser, cart)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "list coupons")
	})

	t.Run("usage error propagates", func(t *testing.T) {
		usage := &mockUsage{countsErr: errors.New("connection reset")}
		svc := newTestService(&mockCatalog{}, usage)

		_, err := svc.BestFor(context.Background(), basicUser, cart)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load usage counts")
	})
}

func TestService_RecordUsage(t *testing.T) {
	t.Run("bumps the counter", func(t *testing.T) {
		usage := &mockUsage{counts: UsageCounts{"SAVE10": 1}}
		svc := newTestService(&mockCatalog{}, usage)

		count, err := svc.RecordUsage(context.Background(), "SAVE10", "u1")
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)
		assert.Equal(t, []string{"SAVE10:u1"}, usage.incremented)
	})

	t.Run("does not require the coupon to exist", func(t *testing.T) {
		usage := &mockUsage{}
		svc := newTestService(&mockCatalog{}, usage)

		count, err := svc.RecordUsage(context.Background(), "GHOST", "u1")
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("store error propagates", func(t *testing.T) {
		usage := &mockUsage{incrementErr: errors.New("connection reset")}
		svc := newTestService(&mockCatalog{}, usage)

		_, err := svc.RecordUsage(context.Background(), "SAVE10", "u1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "increment usage")
	})
}
