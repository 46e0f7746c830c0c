package create_booking

import (
	"time"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
)

// Request модель запроса на резервирование
type Request struct {
	SpecialistID int64             // ID специалиста
	ServiceIDs   []int64           // Услуги подряд, в порядке выбора; первая сохраняется как ServiceID
	StartUTC     time.Time         // Начало (мгновение, UTC)
	Client       domain.ClientInfo // Снимок данных клиента
	Note         *string           // Комментарий (опционально)
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID            int64
	SpecialistID  int64
	ServiceID     int64
	Items         []domain.BookingItem
	StartUTC      time.Time
	EndUTC        time.Time
	BufferMinutes int
	Status        domain.BookingStatus
	PaymentStatus domain.PaymentStatus
	Client        domain.ClientInfo
	PriceCents    int64
	Currency      string
	Note          *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ToDomain возвращает бронирование, описанное ответом
func (r *Response) ToDomain() *domain.Booking {
	return &domain.Booking{
		ID:            r.ID,
		SpecialistID:  r.SpecialistID,
		ServiceID:     r.ServiceID,
		Items:         r.Items,
		StartUTC:      r.StartUTC,
		EndUTC:        r.EndUTC,
		BufferMinutes: r.BufferMinutes,
		Status:        r.Status,
		PaymentStatus: r.PaymentStatus,
		Client:        r.Client,
		PriceCents:    r.PriceCents,
		Currency:      r.Currency,
		Note:          r.Note,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func fromDomain(b *domain.Booking) *Response {
	return &Response{
		ID:            b.ID,
		SpecialistID:  b.SpecialistID,
		ServiceID:     b.ServiceID,
		Items:         b.Items,
		StartUTC:      b.StartUTC,
		EndUTC:        b.EndUTC,
		BufferMinutes: b.BufferMinutes,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		Client:        b.Client,
		PriceCents:    b.PriceCents,
		Currency:      b.Currency,
		Note:          b.Note,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}
