package update_booking_status

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
	"github.com/m04kA/SMC-ClinicBooking/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ClinicBooking/internal/integrations/notifier"
	"github.com/m04kA/SMC-ClinicBooking/internal/service/bookings"
	"github.com/m04kA/SMC-ClinicBooking/internal/service/bookings/models"
	"github.com/m04kA/SMC-ClinicBooking/pkg/logger"
	"github.com/m04kA/SMC-ClinicBooking/pkg/metrics"
)

func setup(t *testing.T, status domain.BookingStatus) (*mux.Router, int64) {
	t.Helper()

	store := memory.NewStore()
	require.NoError(t, memory.SeedDemo(store))

	start := time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)
	b, err := store.Bookings().Create(context.Background(), &domain.Booking{
		SpecialistID:  1,
		ServiceID:     1,
		Items:         []domain.BookingItem{{ServiceID: 1, ServiceName: "Consultation", DurationMinutes: 30, PriceCents: 300000}},
		StartUTC:      start,
		EndUTC:        start.Add(30 * time.Minute),
		BufferMinutes: 15,
		Status:        status,
		PaymentStatus: domain.PaymentRequiresPayment,
		Client:        domain.ClientInfo{Name: "Guest", Email: "guest@example.com"},
		PriceCents:    300000,
		Currency:      "RUB",
	})
	require.NoError(t, err)

	log := logger.NewNop()
	svc := bookings.NewService(store.Bookings(), store.Catalog(), store.TxManager(), notifier.Nop{}, (*metrics.Metrics)(nil), log)

	r := mux.NewRouter()
	r.HandleFunc("/bookings/{bookingId}/status", NewHandler(svc, log).Handle).Methods(http.MethodPatch)
	return r, b.ID
}

func patch(r *mux.Router, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, target, strings.NewReader(body)))
	return rec
}

func TestHandle_Confirm(t *testing.T) {
	r, id := setup(t, domain.StatusPending)

	rec := patch(r, "/bookings/"+strconv.FormatInt(id, 10)+"/status", `{"status":"CONFIRMED"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body models.BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "CONFIRMED", body.Status)
	assert.ElementsMatch(t, []string{"COMPLETED", "CANCELED", "NO_SHOW"}, body.AllowedTransitions)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status domain.BookingStatus
		target string
		body   string
		code   int
	}{
		{"terminal status", domain.StatusCompleted, "", `{"status":"CONFIRMED"}`, http.StatusConflict},
		{"canceled to pending", domain.StatusCanceled, "", `{"status":"PENDING"}`, http.StatusConflict},
		{"unknown status", domain.StatusPending, "", `{"status":"DONE"}`, http.StatusBadRequest},
		{"malformed body", domain.StatusPending, "", `{"status":`, http.StatusBadRequest},
		{"unknown booking", domain.StatusPending, "/bookings/999/status", `{"status":"CONFIRMED"}`, http.StatusNotFound},
		{"invalid id", domain.StatusPending, "/bookings/x/status", `{"status":"CONFIRMED"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, id := setup(t, tt.status)
			target := tt.target
			if target == "" {
				target = "/bookings/" + strconv.FormatInt(id, 10) + "/status"
			}

			rec := patch(r, target, tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}
}
