package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
	"github.com/m04kA/SMC-ClinicBooking/internal/infra/storage/booking"
	"github.com/m04kA/SMC-ClinicBooking/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-ClinicBooking/internal/infra/storage/policy"
	"github.com/m04kA/SMC-ClinicBooking/pkg/ptr"
)

var base = time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)

func newBooking(specialistID int64, startOffset, minutes, buffer int) *domain.Booking {
	start := base.Add(time.Duration(startOffset) * time.Minute)
	return &domain.Booking{
		SpecialistID:  specialistID,
		ServiceID:     1,
		Items:         []domain.BookingItem{{ServiceID: 1, ServiceName: "Consultation", DurationMinutes: minutes}},
		StartUTC:      start,
		EndUTC:        start.Add(time.Duration(minutes) * time.Minute),
		BufferMinutes: buffer,
		Status:        domain.StatusConfirmed,
		PaymentStatus: domain.PaymentRequiresPayment,
	}
}

func TestBookings_CreateRejectsOverlap(t *testing.T) {
	repo := NewStore().Bookings()
	ctx := context.Background()

	first, err := repo.Create(ctx, newBooking(1, 0, 30, 15))
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)

	// пересекается с буфером первого бронирования
	_, err = repo.Create(ctx, newBooking(1, 30, 30, 15))
	assert.ErrorIs(t, err, booking.ErrSlotNotAvailable)

	// сразу после буфера
	_, err = repo.Create(ctx, newBooking(1, 45, 30, 15))
	assert.NoError(t, err)

	// другой специалист не конфликтует
	_, err = repo.Create(ctx, newBooking(2, 0, 30, 15))
	assert.NoError(t, err)
}

func TestBookings_CanceledDoesNotOccupy(t *testing.T) {
	repo := NewStore().Bookings()
	ctx := context.Background()

	first, err := repo.Create(ctx, newBooking(1, 0, 30, 0))
	require.NoError(t, err)
	require.NoError(t, repo.Cancel(ctx, first.ID, ptr.Ptr("changed plans"), base))

	_, err = repo.Create(ctx, newBooking(1, 0, 30, 0))
	assert.NoError(t, err)

	canceled, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCanceled, canceled.Status)
	assert.Equal(t, "changed plans", *canceled.CancellationReason)
	require.NotNil(t, canceled.CancelledAt)
}

func TestBookings_CreateRequiresItems(t *testing.T) {
	repo := NewStore().Bookings()
	b := newBooking(1, 0, 30, 0)
	b.Items = nil

	_, err := repo.Create(context.Background(), b)
	assert.ErrorIs(t, err, booking.ErrNoItems)
}

func TestBookings_GetByIDNotFound(t *testing.T) {
	_, err := NewStore().Bookings().GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, booking.ErrBookingNotFound)
}

func TestBookings_ReturnedCopiesAreIsolated(t *testing.T) {
	repo := NewStore().Bookings()
	ctx := context.Background()

	created, err := repo.Create(ctx, newBooking(1, 0, 30, 0))
	require.NoError(t, err)
	created.Status = domain.StatusNoShow
	created.Items[0].ServiceName = "changed"

	stored, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, stored.Status)
	assert.Equal(t, "Consultation", stored.Items[0].ServiceName)
}

func TestBookings_FilterOrdersByStart(t *testing.T) {
	repo := NewStore().Bookings()
	ctx := context.Background()

	_, err := repo.Create(ctx, newBooking(1, 120, 30, 0))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newBooking(1, 0, 30, 0))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newBooking(1, 600, 30, 0))
	require.NoError(t, err)

	to := base.Add(5 * time.Hour)
	list, err := repo.GetBySpecialistWithFilter(ctx, domain.BookingsFilter{SpecialistID: 1, From: &base, To: &to})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].StartUTC.Equal(base))
	assert.True(t, list[1].StartUTC.Equal(base.Add(2*time.Hour)))
}

func TestTxManager_RollbackUndoesChanges(t *testing.T) {
	store := NewStore()
	repo := store.Bookings()
	ctx := context.Background()

	existing, err := repo.Create(ctx, newBooking(1, 0, 30, 0))
	require.NoError(t, err)

	errBoom := errors.New("boom")
	err = store.TxManager().DoSerializable(ctx, func(txCtx context.Context) error {
		if _, err := repo.Create(txCtx, newBooking(1, 60, 30, 0)); err != nil {
			return err
		}
		if err := repo.UpdateStatus(txCtx, existing.ID, domain.StatusCompleted); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	list, err := repo.GetBySpecialistWithFilter(ctx, domain.BookingsFilter{SpecialistID: 1, IncludeInactive: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.StatusConfirmed, list[0].Status)
}

func TestTxManager_NestedCallReusesTransaction(t *testing.T) {
	store := NewStore()
	repo := store.Bookings()
	tm := store.TxManager()

	err := tm.Do(context.Background(), func(outer context.Context) error {
		require.NoError(t, repo.LockSpecialist(outer, 1))
		return tm.Do(outer, func(inner context.Context) error {
			// повторный захват в той же транзакции не блокируется
			return repo.LockSpecialist(inner, 1)
		})
	})
	assert.NoError(t, err)
}

func TestLockSpecialist_RequiresTransaction(t *testing.T) {
	err := NewStore().Bookings().LockSpecialist(context.Background(), 1)
	assert.ErrorIs(t, err, booking.ErrNotInTransaction)
}

func TestLockSpecialist_SerializesTransactions(t *testing.T) {
	store := NewStore()
	repo := store.Bookings()
	tm := store.TxManager()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = tm.DoSerializable(context.Background(), func(txCtx context.Context) error {
				if err := repo.LockSpecialist(txCtx, 7); err != nil {
					return err
				}
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
}

func TestLockSpecialist_ContextCanceled(t *testing.T) {
	store := NewStore()
	repo := store.Bookings()
	tm := store.TxManager()

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = tm.Do(context.Background(), func(txCtx context.Context) error {
			_ = repo.LockSpecialist(txCtx, 1)
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := tm.Do(ctx, func(txCtx context.Context) error {
		return repo.LockSpecialist(txCtx, 1)
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}

func TestCatalog(t *testing.T) {
	store := NewStore()
	require.NoError(t, SeedDemo(store))
	repo := store.Catalog()
	ctx := context.Background()

	sp, err := repo.GetSpecialist(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Moscow", sp.TZID)

	_, err = repo.GetSpecialist(ctx, 99)
	assert.ErrorIs(t, err, catalog.ErrSpecialistNotFound)

	services, err := repo.GetServices(ctx, []int64{2, 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), services[0].ID)
	assert.Equal(t, int64(1), services[1].ID)

	_, err = repo.GetServices(ctx, []int64{1, 99})
	assert.ErrorIs(t, err, catalog.ErrServiceNotFound)

	linked, err := repo.LinkedServiceIDs(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, linked)

	both, err := repo.SpecialistsLinkedToAll(ctx, []int64{1, 3})
	require.NoError(t, err)
	require.Len(t, both, 2)
	assert.Equal(t, int64(1), both[0].ID)
	assert.Equal(t, int64(2), both[1].ID)

	// услугу 2 выполняет только первый специалист
	only, err := repo.SpecialistsLinkedToAll(ctx, []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, int64(1), only[0].ID)
}

func TestPolicies_Hierarchy(t *testing.T) {
	repo := NewStore().Policies()
	ctx := context.Background()

	_, err := repo.GetPolicyWithHierarchy(ctx, ptr.Ptr(int64(1)), ptr.Ptr(int64(2)))
	assert.ErrorIs(t, err, policy.ErrPolicyNotFound)

	_, err = repo.Create(ctx, &domain.BookingPolicy{AdvanceBookingDays: 30})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &domain.BookingPolicy{ServiceID: ptr.Ptr(int64(2)), AdvanceBookingDays: 14})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &domain.BookingPolicy{SpecialistID: ptr.Ptr(int64(1)), RequireConfirmation: true})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &domain.BookingPolicy{AdvanceBookingDays: 7})
	assert.ErrorIs(t, err, policy.ErrDuplicatePolicy)

	tests := []struct {
		name         string
		specialistID *int64
		serviceID    *int64
		wantConfirm  bool
		wantDays     int
	}{
		{"specialist wins over service", ptr.Ptr(int64(1)), ptr.Ptr(int64(2)), true, 0},
		{"service level", ptr.Ptr(int64(5)), ptr.Ptr(int64(2)), false, 14},
		{"global fallback", ptr.Ptr(int64(5)), ptr.Ptr(int64(9)), false, 30},
		{"global only", nil, nil, false, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := repo.GetPolicyWithHierarchy(ctx, tt.specialistID, tt.serviceID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantConfirm, p.RequireConfirmation)
			assert.Equal(t, tt.wantDays, p.AdvanceBookingDays)
		})
	}

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].IsGlobal())
	assert.True(t, all[1].IsServiceWide())
	assert.True(t, all[2].IsSpecialistWide())
}

func TestPolicies_Update(t *testing.T) {
	repo := NewStore().Policies()
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.BookingPolicy{AdvanceBookingDays: 30})
	require.NoError(t, err)

	updated, err := repo.Update(ctx, created.ID, &domain.BookingPolicy{RequireConfirmation: true, AdvanceBookingDays: 10})
	require.NoError(t, err)
	assert.True(t, updated.RequireConfirmation)
	assert.Equal(t, 10, updated.AdvanceBookingDays)

	_, err = repo.Update(ctx, 999, &domain.BookingPolicy{})
	assert.ErrorIs(t, err, policy.ErrPolicyNotFound)
}
