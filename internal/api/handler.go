// Package api exposes the coupon service over HTTP with JSON bodies.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Handler serves the coupon HTTP endpoints, delegating business logic to the
// coupon service.
type Handler struct {
	coupons CouponService
}

// NewHandler constructs a Handler around the given coupon service.
func NewHandler(coupons CouponService) *Handler {
	return &Handler{coupons: coupons}
}

// Routes returns the API router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Route("/coupons", func(r chi.Router) {
		r.Post("/", h.CreateCoupon)
		r.Get("/", h.ListCoupons)
		r.Post("/best", h.BestCoupon)
		r.Post("/{code}/use", h.RecordUsage)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

// writeInternalError logs the error with the request-scoped logger and
// responds with a generic 500 body.
func writeInternalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	zctx.From(r.Context()).Error("request failed",
		zap.String("op", op),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
