package notifier

import (
	"time"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
)

// EventType тип события бронирования
type EventType string

const (
	EventBookingCreated       EventType = "booking.created"
	EventBookingStatusChanged EventType = "booking.status_changed"
	EventBookingPaymentChange EventType = "booking.payment_changed"
)

// Event событие бронирования для слоя уведомлений (email/SMS)
type Event struct {
	Type                  EventType            `json:"type"`
	BookingID             int64                `json:"bookingId"`
	SpecialistID          int64                `json:"specialistId"`
	ServiceIDs            []int64              `json:"serviceIds"`
	StartUTC              time.Time            `json:"startUtc"`
	EndUTC                time.Time            `json:"endUtc"`
	Status                domain.BookingStatus `json:"status"`
	PreviousStatus        domain.BookingStatus `json:"previousStatus,omitempty"`
	PaymentStatus         domain.PaymentStatus `json:"paymentStatus"`
	PreviousPaymentStatus domain.PaymentStatus `json:"previousPaymentStatus,omitempty"`
	ClientName            string               `json:"clientName"`
	ClientEmail           string               `json:"clientEmail"`
	CancellationReason    *string              `json:"cancellationReason,omitempty"`
	OccurredAt            time.Time            `json:"occurredAt"`
}

// NewEvent строит событие по текущему состоянию бронирования
func NewEvent(t EventType, b *domain.Booking, occurredAt time.Time) Event {
	return Event{
		Type:               t,
		BookingID:          b.ID,
		SpecialistID:       b.SpecialistID,
		ServiceIDs:         b.ServiceIDs(),
		StartUTC:           b.StartUTC,
		EndUTC:             b.EndUTC,
		Status:             b.Status,
		PaymentStatus:      b.PaymentStatus,
		ClientName:         b.Client.Name,
		ClientEmail:        b.Client.Email,
		CancellationReason: b.CancellationReason,
		OccurredAt:         occurredAt.UTC(),
	}
}
