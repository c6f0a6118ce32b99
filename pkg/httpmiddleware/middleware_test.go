package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestWrap_Order(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Wrap(okHandler(), tag("outer"), tag("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestRecovery(t *testing.T) {
	h := Wrap(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic("boom")
	}), Recovery())

	w := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "close", w.Header().Get("Connection"))
}

func TestRequestID(t *testing.T) {
	var seen string
	h := Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}), RequestID())

	t.Run("generates an id", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		id := w.Header().Get("X-Request-ID")
		assert.NotEmpty(t, id)
		assert.Equal(t, id, seen)
	})

	t.Run("reuses a valid incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "trace-abc-123")

		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, "trace-abc-123", w.Header().Get("X-Request-ID"))
		assert.Equal(t, "trace-abc-123", seen)
	})

	t.Run("replaces an invalid incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "bad\x01id")

		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.NotEqual(t, "bad\x01id", w.Header().Get("X-Request-ID"))
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})
}

func TestRateLimit(t *testing.T) {
	newLimited := func(max int, window time.Duration) http.Handler {
		return Wrap(okHandler(), RateLimit(RateLimitConfig{Max: max, Window: window}))
	}

	t.Run("allows up to the limit then rejects", func(t *testing.T) {
		h := newLimited(3, time.Minute)

		for i := range 3 {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			require.Equal(t, http.StatusOK, w.Code, "request %d", i)
			assert.Equal(t, strconv.Itoa(2-i), w.Header().Get("X-RateLimit-Remaining"))
		}

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.JSONEq(t, `{"message": "rate limit exceeded"}`, w.Body.String())
	})

	t.Run("window expiry resets the budget", func(t *testing.T) {
		h := newLimited(1, 20*time.Millisecond)

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusTooManyRequests, w.Code)

		time.Sleep(30 * time.Millisecond)

		w = httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("keys are independent", func(t *testing.T) {
		h := newLimited(1, time.Minute)

		first := httptest.NewRequest(http.MethodGet, "/", nil)
		first.Header.Set("X-Forwarded-For", "10.0.0.1")
		second := httptest.NewRequest(http.MethodGet, "/", nil)
		second.Header.Set("X-Forwarded-For", "10.0.0.2")

		w := httptest.NewRecorder()
		h.ServeHTTP(w, first)
		require.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		h.ServeHTTP(w, second)
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		h.ServeHTTP(w, first)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr",
			remoteAddr: "192.0.2.1:51234",
			want:       "192.0.2.1",
		},
		{
			name:       "x-forwarded-for single",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7"},
			want:       "203.0.113.7",
		},
		{
			name:       "x-forwarded-for chain uses first hop",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2"},
			want:       "203.0.113.7",
		},
		{
			name:       "x-real-ip fallback",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Real-IP": "198.51.100.3"},
			want:       "198.51.100.3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(r))
		})
	}
}
