package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/promo-engine/internal/domain/coupon"
)

// CouponService is the slice of coupon.Service the handlers need.
type CouponService interface {
	Create(ctx context.Context, p *coupon.Payload) (*coupon.Coupon, error)
	List(ctx context.Context) ([]coupon.Coupon, error)
	BestFor(ctx context.Context, user coupon.User, cart coupon.Cart) (coupon.Result, error)
	RecordUsage(ctx context.Context, code, userID string) (int64, error)
}

// CreateCoupon handles POST /coupons: validate the payload and append it to
// the catalog.
func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var payload coupon.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.coupons.Create(r.Context(), &payload)
	if err != nil {
		var verr *coupon.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Message)
		case errors.Is(err, coupon.ErrDuplicateCode):
			writeError(w, http.StatusBadRequest, "coupon code already exists")
		default:
			writeInternalError(w, r, "create coupon", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, createCouponResponse{
		Message: "coupon created",
		Coupon:  domainToCouponJSON(*created),
	})
}

// ListCoupons handles GET /coupons: return the full catalog.
func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.coupons.List(r.Context())
	if err != nil {
		writeInternalError(w, r, "list coupons", err)
		return
	}

	out := make([]couponJSON, len(coupons))
	for i, c := range coupons {
		out[i] = domainToCouponJSON(c)
	}
	writeJSON(w, http.StatusOK, out)
}

// BestCoupon handles POST /coupons/best: pick the single best-applicable
// coupon for the supplied user and cart.
func (h *Handler) BestCoupon(w http.ResponseWriter, r *http.Request) {
	var req bestCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.User == nil || req.Cart == nil {
		writeError(w, http.StatusBadRequest, "missing user or cart in request body")
		return
	}

	result, err := h.coupons.BestFor(r.Context(), req.User.toDomain(), req.Cart.toDomain())
	if err != nil {
		writeInternalError(w, r, "best coupon", err)
		return
	}

	// Coupons dropped because their evaluation blew up are a catalog problem,
	// not a request problem; surface them in the logs.
	if len(result.Skipped) > 0 {
		zctx.From(r.Context()).Warn("coupons skipped during evaluation",
			zap.Strings("codes", result.Skipped),
		)
	}

	resp := bestCouponResponse{}
	if result.Coupon != nil {
		cj := domainToCouponJSON(*result.Coupon)
		disc := result.Discount.InexactFloat64()
		resp.Coupon = &cj
		resp.Discount = &disc
	}
	writeJSON(w, http.StatusOK, resp)
}

// RecordUsage handles POST /coupons/{code}/use: bump the per-user redemption
// counter. This is a raw counter increment, intentionally decoupled from
// evaluation.
func (h *Handler) RecordUsage(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req recordUsageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId required in body")
		return
	}

	count, err := h.coupons.RecordUsage(r.Context(), code, req.UserID)
	if err != nil {
		writeInternalError(w, r, "record usage", err)
		return
	}

	writeJSON(w, http.StatusOK, recordUsageResponse{
		Message:    "usage recorded",
		Code:       code,
		UserID:     req.UserID,
		UsageCount: count,
	})
}
