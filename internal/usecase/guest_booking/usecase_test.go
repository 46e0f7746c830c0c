package guest_booking

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
	"github.com/m04kA/SMC-ClinicBooking/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ClinicBooking/internal/integrations/notifier"
	"github.com/m04kA/SMC-ClinicBooking/internal/usecase/create_booking"
	"github.com/m04kA/SMC-ClinicBooking/internal/usecase/resolve_selection"
	"github.com/m04kA/SMC-ClinicBooking/pkg/logger"
	"github.com/m04kA/SMC-ClinicBooking/pkg/metrics"
	"github.com/m04kA/SMC-ClinicBooking/pkg/ptr"
)

var msk, _ = time.LoadLocation("Europe/Moscow")

// at возвращает мгновение для времени по Москве в понедельник 2025-03-10
func at(h, m int) time.Time {
	return time.Date(2025, 3, 10, h, m, 0, 0, msk).UTC()
}

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

func newUseCase(t *testing.T) (*UseCase, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	require.NoError(t, memory.SeedDemo(store))

	log := logger.NewNop()
	creator := create_booking.NewUseCase(
		store.Bookings(),
		store.Catalog(),
		store.Policies(),
		store.TxManager(),
		notifier.Nop{},
		(*metrics.Metrics)(nil),
		log,
	).WithTimeProvider(fixedTime{now: at(8, 0)})

	uc := NewUseCase(resolve_selection.NewUseCase(store.Catalog(), log), creator, store.Catalog(), log)
	return uc, store
}

func request(specialistID int64, start time.Time, serviceIDs ...int64) *Request {
	return &Request{
		SpecialistID: specialistID,
		ServiceIDs:   serviceIDs,
		StartUTC:     start,
		Contact: Contact{
			Name:  "Anna Smirnova",
			Email: "anna@example.com",
			Phone: ptr.Ptr("+7 (999) 123-45-67"),
		},
	}
}

func TestExecute_MultiServiceBooking(t *testing.T) {
	uc, store := newUseCase(t)

	resp, err := uc.Execute(context.Background(), request(1, at(10, 0), 2, 1))
	require.NoError(t, err)

	assert.Equal(t, int64(2), resp.ServiceID)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, int64(2), resp.Items[0].ServiceID)
	assert.Equal(t, int64(1), resp.Items[1].ServiceID)
	assert.Equal(t, at(11, 15), resp.EndUTC)
	assert.Equal(t, int64(750000), resp.PriceCents)
	require.NotNil(t, resp.Client.Phone)
	assert.Equal(t, "+79991234567", *resp.Client.Phone)

	stored, err := store.Bookings().GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, stored.ServiceIDs())
}

func TestExecute_SpecialistOutsideIntersection(t *testing.T) {
	uc, _ := newUseCase(t)

	// Специалист 2 выполняет услуги 1 и 3, но не 2
	_, err := uc.Execute(context.Background(), request(2, at(10, 0), 1, 2))
	assert.ErrorIs(t, err, ErrSpecialistNotLinked)

	_, err = uc.Execute(context.Background(), request(99, at(10, 0), 1))
	assert.ErrorIs(t, err, ErrSpecialistNotFound)
}

func TestExecute_ContactValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *Request)
	}{
		{name: "missing name", modify: func(r *Request) { r.Contact.Name = "   " }},
		{name: "name too long", modify: func(r *Request) { r.Contact.Name = strings.Repeat("я", 201) }},
		{name: "missing email", modify: func(r *Request) { r.Contact.Email = "" }},
		{name: "bad email", modify: func(r *Request) { r.Contact.Email = "anna.example.com" }},
		{name: "email with display name", modify: func(r *Request) { r.Contact.Email = "Anna <anna@example.com>" }},
		{name: "bad phone", modify: func(r *Request) { r.Contact.Phone = ptr.Ptr("call me") }},
		{name: "note too long", modify: func(r *Request) { r.Note = ptr.Ptr(strings.Repeat("x", domain.MaxNoteLength+1)) }},
		{name: "no services", modify: func(r *Request) { r.ServiceIDs = nil }},
		{name: "no start", modify: func(r *Request) { r.StartUTC = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, _ := newUseCase(t)
			req := request(1, at(10, 0), 1)
			tt.modify(req)

			_, err := uc.Execute(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestExecute_BlankPhoneIsDropped(t *testing.T) {
	uc, _ := newUseCase(t)
	req := request(1, at(10, 0), 1)
	req.Contact.Phone = ptr.Ptr("  ")

	resp, err := uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, resp.Client.Phone)
}

func TestExecute_SelectionErrors(t *testing.T) {
	uc, _ := newUseCase(t)

	_, err := uc.Execute(context.Background(), request(1, at(10, 0), 1, 99))
	assert.ErrorIs(t, err, ErrServiceNotFound)

	_, err = uc.Execute(context.Background(), request(1, at(10, 0), 1, 1))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExecute_ReservationErrorsPassThrough(t *testing.T) {
	uc, _ := newUseCase(t)

	_, err := uc.Execute(context.Background(), request(1, at(10, 0), 1))
	require.NoError(t, err)

	_, err = uc.Execute(context.Background(), request(1, at(10, 0), 1))
	assert.ErrorIs(t, err, create_booking.ErrSlotNotAvailable)

	_, err = uc.Execute(context.Background(), request(1, at(8, 30), 1))
	assert.ErrorIs(t, err, create_booking.ErrTooLateToBook)
}

func TestExecute_DoesNotMutateRequest(t *testing.T) {
	uc, _ := newUseCase(t)
	req := request(1, at(10, 0), 1)

	_, err := uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "+7 (999) 123-45-67", *req.Contact.Phone)
}
