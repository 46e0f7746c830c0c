package domain

import (
	"time"
)

// BookingStatus represents the lifecycle status of a booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusCompleted BookingStatus = "COMPLETED"
	StatusCanceled  BookingStatus = "CANCELED"
	StatusNoShow    BookingStatus = "NO_SHOW"
)

// IsValid reports whether s is a known booking status
func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCanceled, StatusNoShow:
		return true
	}
	return false
}

// PaymentStatus represents the payment axis of a booking, independent of BookingStatus
type PaymentStatus string

const (
	PaymentRequiresPayment PaymentStatus = "REQUIRES_PAYMENT"
	PaymentPaid            PaymentStatus = "PAID"
	PaymentRefunded        PaymentStatus = "REFUNDED"
	PaymentCanceled        PaymentStatus = "CANCELED"
)

// IsValid reports whether s is a known payment status
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentRequiresPayment, PaymentPaid, PaymentRefunded, PaymentCanceled:
		return true
	}
	return false
}

// ClientInfo is a snapshot of the client taken when the booking is created.
// Later edits of the client profile never change it.
type ClientInfo struct {
	UserID *int64 // nil for guests
	Name   string
	Email  string
	Phone  *string
}

// BookingItem is one service reserved within a booking, in selection order
type BookingItem struct {
	ServiceID       int64
	ServiceName     string
	DurationMinutes int
	PriceCents      int64
}

// Booking represents a reservation of [StartUTC, EndUTC) on one specialist
type Booking struct {
	ID           int64
	SpecialistID int64
	ServiceID    int64 // first selected service
	Items        []BookingItem

	StartUTC      time.Time
	EndUTC        time.Time
	BufferMinutes int

	Status        BookingStatus
	PaymentStatus PaymentStatus

	Client     ClientInfo
	PriceCents int64
	Currency   string
	Note       *string

	CancellationReason *string
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OccupiedUntil returns the end of the booking including the buffer after it
func (b *Booking) OccupiedUntil() time.Time {
	return b.EndUTC.Add(time.Duration(b.BufferMinutes) * time.Minute)
}

// Occupies returns true if the booking blocks the specialist's time
func (b *Booking) Occupies() bool {
	return b.Status.Occupies()
}

// Occupies returns true for statuses that take part in the no-overlap check
func (s BookingStatus) Occupies() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusCompleted
}

// DurationMinutes returns the total reserved duration without the buffer
func (b *Booking) DurationMinutes() int {
	return int(b.EndUTC.Sub(b.StartUTC) / time.Minute)
}

// ServiceIDs returns the reserved services in selection order
func (b *Booking) ServiceIDs() []int64 {
	if len(b.Items) == 0 {
		return []int64{b.ServiceID}
	}
	ids := make([]int64, len(b.Items))
	for i, item := range b.Items {
		ids[i] = item.ServiceID
	}
	return ids
}

// BookingsFilter фильтр для получения бронирований специалиста
type BookingsFilter struct {
	SpecialistID    int64          // Обязательный параметр
	From            *time.Time     // Начало окна (UTC), бронирования с OccupiedUntil > From
	To              *time.Time     // Конец окна (UTC), бронирования со StartUTC < To
	Status          *BookingStatus // Фильтр по статусу (опционально)
	IncludeInactive bool           // Включать ли CANCELED и NO_SHOW
}

// Matches reports whether b passes the filter
func (f BookingsFilter) Matches(b *Booking) bool {
	if b.SpecialistID != f.SpecialistID {
		return false
	}
	if f.From != nil && !b.OccupiedUntil().After(*f.From) {
		return false
	}
	if f.To != nil && !b.StartUTC.Before(*f.To) {
		return false
	}
	if f.Status != nil {
		return b.Status == *f.Status
	}
	if !f.IncludeInactive && !b.Occupies() {
		return false
	}
	return true
}
