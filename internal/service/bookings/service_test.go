package bookings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
	"github.com/m04kA/SMC-ClinicBooking/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ClinicBooking/internal/integrations/notifier"
	"github.com/m04kA/SMC-ClinicBooking/internal/service/bookings/models"
	"github.com/m04kA/SMC-ClinicBooking/pkg/logger"
	"github.com/m04kA/SMC-ClinicBooking/pkg/metrics"
	"github.com/m04kA/SMC-ClinicBooking/pkg/ptr"
)

var now = time.Date(2025, 3, 10, 5, 0, 0, 0, time.UTC)

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifier.Event
	err    error
}

func (n *recordingNotifier) Publish(_ context.Context, e notifier.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, e)
	return nil
}

type fixture struct {
	store    *memory.Store
	notifier *recordingNotifier
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	require.NoError(t, memory.SeedDemo(store))

	n := &recordingNotifier{}
	svc := NewService(
		store.Bookings(),
		store.Catalog(),
		store.TxManager(),
		n,
		(*metrics.Metrics)(nil),
		logger.NewNop(),
	).WithTimeProvider(fixedTime{now: now})

	return &fixture{store: store, notifier: n, svc: svc}
}

// add сохраняет бронирование специалиста 1 на 30 минут, начиная с hour:00 UTC
func (f *fixture) add(t *testing.T, hour int, status domain.BookingStatus) *domain.Booking {
	t.Helper()

	start := time.Date(2025, 3, 11, hour, 0, 0, 0, time.UTC)
	b, err := f.store.Bookings().Create(context.Background(), &domain.Booking{
		SpecialistID:  1,
		ServiceID:     1,
		Items:         []domain.BookingItem{{ServiceID: 1, ServiceName: "Consultation", DurationMinutes: 30, PriceCents: 300000}},
		StartUTC:      start,
		EndUTC:        start.Add(30 * time.Minute),
		BufferMinutes: 15,
		Status:        status,
		PaymentStatus: domain.PaymentRequiresPayment,
		Client:        domain.ClientInfo{Name: "Anna", Email: "anna@example.com"},
		PriceCents:    300000,
		Currency:      "RUB",
	})
	require.NoError(t, err)
	return b
}

func TestGetByID(t *testing.T) {
	f := newFixture(t)
	b := f.add(t, 7, domain.StatusConfirmed)

	resp, err := f.svc.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, resp.ID)
	assert.Equal(t, []int64{1}, resp.ServiceIDs)
	assert.Equal(t, 30, resp.DurationMinutes)
	assert.Equal(t, "CONFIRMED", resp.Status)
	assert.Equal(t, []string{"COMPLETED", "CANCELED", "NO_SHOW"}, resp.AllowedTransitions)

	_, err = f.svc.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestTransition_Legal(t *testing.T) {
	f := newFixture(t)
	b := f.add(t, 7, domain.StatusPending)

	resp, err := f.svc.Transition(context.Background(), b.ID, &models.UpdateStatusRequest{Status: "CONFIRMED"})
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", resp.Status)

	require.Len(t, f.notifier.events, 1)
	event := f.notifier.events[0]
	assert.Equal(t, notifier.EventBookingStatusChanged, event.Type)
	assert.Equal(t, domain.StatusConfirmed, event.Status)
	assert.Equal(t, domain.StatusPending, event.PreviousStatus)
}

func TestTransition_Illegal(t *testing.T) {
	tests := []struct {
		name      string
		from      domain.BookingStatus
		requested string
	}{
		{name: "pending to completed", from: domain.StatusPending, requested: "COMPLETED"},
		{name: "pending to no-show", from: domain.StatusPending, requested: "NO_SHOW"},
		{name: "completed to confirmed", from: domain.StatusCompleted, requested: "CONFIRMED"},
		{name: "confirmed back to pending", from: domain.StatusConfirmed, requested: "PENDING"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			b := f.add(t, 7, tt.from)

			_, err := f.svc.Transition(context.Background(), b.ID, &models.UpdateStatusRequest{Status: tt.requested})
			assert.ErrorIs(t, err, ErrInvalidTransition)

			stored, err := f.store.Bookings().GetByID(context.Background(), b.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.from, stored.Status)
			assert.Empty(t, f.notifier.events)
		})
	}
}

func TestTransition_SameStatusIsNoop(t *testing.T) {
	f := newFixture(t)
	b := f.add(t, 7, domain.StatusConfirmed)

	resp, err := f.svc.Transition(context.Background(), b.ID, &models.UpdateStatusRequest{Status: "CONFIRMED"})
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", resp.Status)
	assert.Empty(t, f.notifier.events)
}

func TestTransition_ToCanceledStampsCancellation(t *testing.T) {
	f := newFixture(t)
	b := f.add(t, 7, domain.StatusConfirmed)

	resp, err := f.svc.Transition(context.Background(), b.ID, &models.UpdateStatusRequest{Status: "CANCELED"})
	require.NoError(t, err)
	assert.Equal(t, "CANCELED", resp.Status)
	require.NotNil(t, resp.CancelledAt)
	assert.Equal(t, now.Format(time.RFC3339), *resp.CancelledAt)
}

func TestTransition_InvalidInput(t *testing.T) {
	f := newFixture(t)
	b := f.add(t, 7, domain.StatusConfirmed)

	_, err := f.svc.Transition(context.Background(), b.ID, &models.UpdateStatusRequest{Status: "IN_PROGRESS"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Transition(context.Background(), 999, &models.UpdateStatusRequest{Status: "CONFIRMED"})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCancel(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.BookingStatus
		wantErr error
		events  int
	}{
		{name: "from pending", from: domain.StatusPending, events: 1},
		{name: "from confirmed", from: domain.StatusConfirmed, events: 1},
		{name: "already canceled is a no-op", from: domain.StatusCanceled, events: 0},
		{name: "completed cannot be canceled", from: domain.StatusCompleted, wantErr: ErrInvalidTransition},
		{name: "no-show cannot be canceled", from: domain.StatusNoShow, wantErr: ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			b := f.add(t, 7, tt.from)

			resp, err := f.svc.Cancel(context.Background(), b.ID, &models.CancelBookingRequest{
				CancellationReason: ptr.Ptr("patient called"),
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "CANCELED", resp.Status)
			assert.Equal(t, "REQUIRES_PAYMENT", resp.PaymentStatus)
			assert.Len(t, f.notifier.events, tt.events)
		})
	}
}

func TestCancel_ReasonStored(t *testing.T) {
	f := newFixture(t)
	b := f.add(t, 7, domain.StatusConfirmed)

	resp, err := f.svc.Cancel(context.Background(), b.ID, &models.CancelBookingRequest{
		CancellationReason: ptr.Ptr("patient called"),
	})
	require.NoError(t, err)
	require.NotNil(t, resp.CancellationReason)
	assert.Equal(t, "patient called", *resp.CancellationReason)
	assert.Empty(t, resp.AllowedTransitions)
}

func TestCancel_FreesTheInterval(t *testing.T) {
	f := newFixture(t)
	b := f.add(t, 7, domain.StatusConfirmed)

	_, err := f.svc.Cancel(context.Background(), b.ID, &models.CancelBookingRequest{})
	require.NoError(t, err)

	again := f.add(t, 7, domain.StatusConfirmed)
	assert.NotEqual(t, b.ID, again.ID)
}

func TestCancel_ReasonTooLong(t *testing.T) {
	f := newFixture(t)
	b := f.add(t, 7, domain.StatusConfirmed)

	reason := string(make([]byte, domain.MaxCancellationReasonLength+1))
	_, err := f.svc.Cancel(context.Background(), b.ID, &models.CancelBookingRequest{CancellationReason: &reason})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCancel_PublishFailureIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("broker down")
	b := f.add(t, 7, domain.StatusConfirmed)

	resp, err := f.svc.Cancel(context.Background(), b.ID, &models.CancelBookingRequest{})
	require.NoError(t, err)
	assert.Equal(t, "CANCELED", resp.Status)
}

func TestTransitionPayment(t *testing.T) {
	tests := []struct {
		name    string
		steps   []string
		want    string
		wantErr error
	}{
		{name: "pay", steps: []string{"PAID"}, want: "PAID"},
		{name: "pay then refund", steps: []string{"PAID", "REFUNDED"}, want: "REFUNDED"},
		{name: "cancel unpaid", steps: []string{"CANCELED"}, want: "CANCELED"},
		{name: "cancel paid", steps: []string{"PAID", "CANCELED"}, want: "CANCELED"},
		{name: "repeat is a no-op", steps: []string{"PAID", "PAID"}, want: "PAID"},
		{name: "refund unpaid", steps: []string{"REFUNDED"}, wantErr: ErrInvalidTransition},
		{name: "pay after refund", steps: []string{"PAID", "REFUNDED", "PAID"}, wantErr: ErrInvalidTransition},
		{name: "unknown status", steps: []string{"SETTLED"}, wantErr: ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			b := f.add(t, 7, domain.StatusConfirmed)

			var (
				resp *models.BookingResponse
				err  error
			)
			for _, step := range tt.steps {
				resp, err = f.svc.TransitionPayment(context.Background(), b.ID, &models.UpdatePaymentStatusRequest{PaymentStatus: step})
				if err != nil {
					break
				}
			}

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.PaymentStatus)
			assert.Equal(t, "CONFIRMED", resp.Status)
		})
	}
}

func TestTransitionPayment_Event(t *testing.T) {
	f := newFixture(t)
	b := f.add(t, 7, domain.StatusConfirmed)

	_, err := f.svc.TransitionPayment(context.Background(), b.ID, &models.UpdatePaymentStatusRequest{PaymentStatus: "PAID"})
	require.NoError(t, err)

	require.Len(t, f.notifier.events, 1)
	event := f.notifier.events[0]
	assert.Equal(t, notifier.EventBookingPaymentChange, event.Type)
	assert.Equal(t, domain.PaymentPaid, event.PaymentStatus)
	assert.Equal(t, domain.PaymentRequiresPayment, event.PreviousPaymentStatus)
}

func TestListBySpecialist(t *testing.T) {
	f := newFixture(t)
	f.add(t, 7, domain.StatusConfirmed)
	f.add(t, 9, domain.StatusPending)
	canceled := f.add(t, 11, domain.StatusConfirmed)
	_, err := f.svc.Cancel(context.Background(), canceled.ID, &models.CancelBookingRequest{})
	require.NoError(t, err)

	resp, err := f.svc.ListBySpecialist(context.Background(), &models.ListBySpecialistRequest{SpecialistID: 1})
	require.NoError(t, err)
	assert.Len(t, resp.Bookings, 2)

	resp, err = f.svc.ListBySpecialist(context.Background(), &models.ListBySpecialistRequest{SpecialistID: 1, IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, resp.Bookings, 3)

	resp, err = f.svc.ListBySpecialist(context.Background(), &models.ListBySpecialistRequest{SpecialistID: 1, Status: ptr.Ptr("PENDING")})
	require.NoError(t, err)
	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, "PENDING", resp.Bookings[0].Status)

	from := time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC)
	resp, err = f.svc.ListBySpecialist(context.Background(), &models.ListBySpecialistRequest{SpecialistID: 1, From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, "PENDING", resp.Bookings[0].Status)
}

func TestListBySpecialist_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ListBySpecialist(context.Background(), &models.ListBySpecialistRequest{SpecialistID: 99})
	assert.ErrorIs(t, err, ErrSpecialistNotFound)

	_, err = f.svc.ListBySpecialist(context.Background(), &models.ListBySpecialistRequest{SpecialistID: 1, Status: ptr.Ptr("LATE")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	from := time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC)
	_, err = f.svc.ListBySpecialist(context.Background(), &models.ListBySpecialistRequest{SpecialistID: 1, From: &from, To: &from})
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
}

func TestConcurrentTransitionsApplyOnce(t *testing.T) {
	f := newFixture(t)
	b := f.add(t, 7, domain.StatusPending)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.Transition(context.Background(), b.ID, &models.UpdateStatusRequest{Status: "CONFIRMED"})
		}()
	}
	wg.Wait()

	assert.Len(t, f.notifier.events, 1)
}
