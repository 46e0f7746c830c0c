package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
	"github.com/m04kA/SMC-ClinicBooking/internal/infra/storage/booking"
)

// BookingRepository in-memory реализация репозитория бронирований
type BookingRepository struct {
	store *Store
}

// Create сохраняет бронирование.
// Занимающее время бронирование, пересекающееся с другим занимающим
// бронированием того же специалиста, отклоняется с booking.ErrSlotNotAvailable.
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	if len(b.Items) == 0 {
		return nil, booking.ErrNoItems
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.Occupies() {
		for _, existing := range s.bookings {
			if existing.SpecialistID != b.SpecialistID || !existing.Occupies() {
				continue
			}
			if b.StartUTC.Before(existing.OccupiedUntil()) && existing.StartUTC.Before(b.OccupiedUntil()) {
				return nil, fmt.Errorf("%w: overlaps booking id=%d", booking.ErrSlotNotAvailable, existing.ID)
			}
		}
	}

	s.nextBookingID++
	now := s.now()

	stored := cloneBooking(b)
	stored.ID = s.nextBookingID
	stored.StartUTC = stored.StartUTC.UTC()
	stored.EndUTC = stored.EndUTC.UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.bookings[stored.ID] = stored

	id := stored.ID
	onRollback(ctx, func() { delete(s.bookings, id) })

	return cloneBooking(stored), nil
}

// GetByID получает бронирование по ID.
// Внутри транзакции строка блокируется до ее завершения, как FOR UPDATE.
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	if t, ok := txFrom(ctx); ok {
		if err := r.store.lock(ctx, t, bookingKey(id)); err != nil {
			return nil, err
		}
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	b, ok := r.store.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

// GetBySpecialistWithFilter возвращает бронирования специалиста по фильтру,
// упорядоченные по времени начала
func (r *BookingRepository) GetBySpecialistWithFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	result := make([]*domain.Booking, 0)
	for _, b := range r.store.bookings {
		if filter.Matches(b) {
			result = append(result, cloneBooking(b))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].StartUTC.Equal(result[j].StartUTC) {
			return result[i].ID < result[j].ID
		}
		return result[i].StartUTC.Before(result[j].StartUTC)
	})

	return result, nil
}

// LockSpecialist сериализует резервирования одного специалиста до конца транзакции
func (r *BookingRepository) LockSpecialist(ctx context.Context, specialistID int64) error {
	t, ok := txFrom(ctx)
	if !ok {
		return booking.ErrNotInTransaction
	}
	return r.store.lock(ctx, t, specialistKey(specialistID))
}

// UpdateStatus обновляет статус бронирования
func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error {
	return r.update(ctx, id, func(b *domain.Booking) {
		b.Status = status
	})
}

// UpdatePaymentStatus обновляет статус оплаты бронирования
func (r *BookingRepository) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	return r.update(ctx, id, func(b *domain.Booking) {
		b.PaymentStatus = status
	})
}

// Cancel переводит бронирование в CANCELED и сохраняет причину отмены
func (r *BookingRepository) Cancel(ctx context.Context, id int64, reason *string, cancelledAt time.Time) error {
	return r.update(ctx, id, func(b *domain.Booking) {
		b.Status = domain.StatusCanceled
		b.CancellationReason = copyString(reason)
		at := cancelledAt.UTC()
		b.CancelledAt = &at
	})
}

func (r *BookingRepository) update(ctx context.Context, id int64, apply func(b *domain.Booking)) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.bookings[id]
	if !ok {
		return booking.ErrBookingNotFound
	}

	before := cloneBooking(current)
	apply(current)
	current.UpdatedAt = s.now()

	onRollback(ctx, func() { s.bookings[id] = before })
	return nil
}

func cloneBooking(b *domain.Booking) *domain.Booking {
	c := *b
	c.Items = append([]domain.BookingItem(nil), b.Items...)
	c.Note = copyString(b.Note)
	c.CancellationReason = copyString(b.CancellationReason)
	c.Client.Phone = copyString(b.Client.Phone)
	if b.Client.UserID != nil {
		id := *b.Client.UserID
		c.Client.UserID = &id
	}
	if b.CancelledAt != nil {
		at := *b.CancelledAt
		c.CancelledAt = &at
	}
	return &c
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
