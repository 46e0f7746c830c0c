package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
	"github.com/m04kA/SMC-ClinicBooking/internal/statemachine"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")

	// ErrInvalidPaymentStatus возвращается при некорректном статусе оплаты
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
)

// Request модели

// UpdateStatusRequest запрос на смену статуса бронирования
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// CancelBookingRequest запрос на отмену бронирования
type CancelBookingRequest struct {
	CancellationReason *string `json:"cancellationReason,omitempty"`
}

// UpdatePaymentStatusRequest запрос на смену статуса оплаты
type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"paymentStatus"`
}

// ListBySpecialistRequest запрос на получение бронирований специалиста
type ListBySpecialistRequest struct {
	SpecialistID    int64      `json:"specialistId"`
	From            *time.Time `json:"from,omitempty"`            // Начало окна (опционально)
	To              *time.Time `json:"to,omitempty"`              // Конец окна (опционально)
	Status          *string    `json:"status,omitempty"`          // Фильтр по статусу (опционально)
	IncludeInactive bool       `json:"includeInactive,omitempty"` // Включить отменённые и неявки
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *ListBySpecialistRequest) ToDomainFilter() (domain.BookingsFilter, error) {
	filter := domain.BookingsFilter{
		SpecialistID:    r.SpecialistID,
		From:            r.From,
		To:              r.To,
		IncludeInactive: r.IncludeInactive,
	}

	// Конвертируем статус если указан
	if r.Status != nil {
		status, err := ToDomainBookingStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// Response модели

// BookingItemResponse позиция бронирования
type BookingItemResponse struct {
	ServiceID       int64  `json:"serviceId"`
	ServiceName     string `json:"serviceName"`
	DurationMinutes int    `json:"durationMinutes"`
	PriceCents      int64  `json:"priceCents"`
}

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID              int64                 `json:"id"`
	SpecialistID    int64                 `json:"specialistId"`
	ServiceID       int64                 `json:"serviceId"` // первая выбранная услуга
	ServiceIDs      []int64               `json:"serviceIds"`
	Items           []BookingItemResponse `json:"items"`
	StartUTC        time.Time             `json:"startUtc"`
	EndUTC          time.Time             `json:"endUtc"`
	DurationMinutes int                   `json:"durationMinutes"`
	BufferMinutes   int                   `json:"bufferMinutes"`

	Status             string   `json:"status"`
	PaymentStatus      string   `json:"paymentStatus"`
	AllowedTransitions []string `json:"allowedTransitions"`

	// Снимок данных клиента
	ClientUserID *int64  `json:"clientUserId,omitempty"`
	ClientName   string  `json:"clientName"`
	ClientEmail  string  `json:"clientEmail"`
	ClientPhone  *string `json:"clientPhone,omitempty"`

	PriceCents int64   `json:"priceCents"`
	Currency   string  `json:"currency"`
	Note       *string `json:"note,omitempty"`

	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // ISO 8601 format

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:                 b.ID,
		SpecialistID:       b.SpecialistID,
		ServiceID:          b.ServiceID,
		ServiceIDs:         b.ServiceIDs(),
		Items:              make([]BookingItemResponse, len(b.Items)),
		StartUTC:           b.StartUTC.UTC(),
		EndUTC:             b.EndUTC.UTC(),
		DurationMinutes:    b.DurationMinutes(),
		BufferMinutes:      b.BufferMinutes,
		Status:             string(b.Status),
		PaymentStatus:      string(b.PaymentStatus),
		AllowedTransitions: make([]string, 0),
		ClientUserID:       b.Client.UserID,
		ClientName:         b.Client.Name,
		ClientEmail:        b.Client.Email,
		ClientPhone:        b.Client.Phone,
		PriceCents:         b.PriceCents,
		Currency:           b.Currency,
		Note:               b.Note,
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}

	for i, item := range b.Items {
		resp.Items[i] = BookingItemResponse{
			ServiceID:       item.ServiceID,
			ServiceName:     item.ServiceName,
			DurationMinutes: item.DurationMinutes,
			PriceCents:      item.PriceCents,
		}
	}

	for _, s := range statemachine.AllowedTransitions(b.Status) {
		resp.AllowedTransitions = append(resp.AllowedTransitions, string(s))
	}

	// Конвертируем CancelledAt в строку ISO 8601
	if b.CancelledAt != nil {
		cancelledStr := b.CancelledAt.UTC().Format(time.RFC3339)
		resp.CancelledAt = &cancelledStr
	}

	return resp
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}

	for _, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings = append(resp.Bookings, *bookingResp)
		}
	}

	return resp
}

// ToDomainBookingStatus конвертирует строку в domain.BookingStatus с валидацией
func ToDomainBookingStatus(status string) (domain.BookingStatus, error) {
	s := domain.BookingStatus(status)
	if !s.IsValid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// ToDomainPaymentStatus конвертирует строку в domain.PaymentStatus с валидацией
func ToDomainPaymentStatus(status string) (domain.PaymentStatus, error) {
	s := domain.PaymentStatus(status)
	if !s.IsValid() {
		return "", ErrInvalidPaymentStatus
	}
	return s, nil
}
