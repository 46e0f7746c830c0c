package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ClinicBooking/pkg/logger"
	"github.com/m04kA/SMC-ClinicBooking/pkg/metrics"
)

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		_, err := uuid.Parse(seen)
		require.NoError(t, err)
		assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))
	})

	t.Run("propagated", func(t *testing.T) {
		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, id)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, id, seen)
	})

	t.Run("garbage replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, "<script>")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.NotEqual(t, "<script>", seen)
	})
}

func TestOptionalUser(t *testing.T) {
	tests := []struct {
		name   string
		header string
		code   int
		userID int64
		ok     bool
	}{
		{"guest", "", http.StatusOK, 0, false},
		{"user", "15", http.StatusOK, 15, true},
		{"not a number", "abc", http.StatusBadRequest, 0, false},
		{"not positive", "0", http.StatusBadRequest, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				userID int64
				ok     bool
			)
			h := OptionalUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				userID, ok = GetUserID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(HeaderUserID, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.userID, userID)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestRecover(t *testing.T) {
	h := Recover(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	m := metrics.NewWithRegisterer("test", prometheus.NewRegistry())

	r := mux.NewRouter()
	r.Use(MetricsMiddleware(m))
	r.HandleFunc("/bookings/{bookingId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, path := range []string{"/bookings/1", "/bookings/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	counter := m.HTTPRequestsTotal.WithLabelValues("test", http.MethodGet, "/bookings/{bookingId}", "404")
	assert.Equal(t, float64(2), testutil.ToFloat64(counter))
}
