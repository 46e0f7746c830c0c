package create_booking

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-ClinicBooking/internal/service/bookings/models"
	createBooking "github.com/m04kA/SMC-ClinicBooking/internal/usecase/create_booking"
	guestBooking "github.com/m04kA/SMC-ClinicBooking/internal/usecase/guest_booking"
)

var (
	errNoServices      = errors.New("serviceIds or serviceId is required")
	errBothServiceKeys = errors.New("serviceIds and serviceId are mutually exclusive")
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	SpecialistID int64   `json:"specialistId"`
	ServiceIDs   []int64 `json:"serviceIds,omitempty"`
	ServiceID    *int64  `json:"serviceId,omitempty"` // одиночная услуга, вместо serviceIds
	StartUTC     string  `json:"startUtc"`            // "2025-03-10T07:00:00Z"
	ClientName   string  `json:"clientName"`
	ClientEmail  string  `json:"clientEmail"`
	ClientPhone  *string `json:"clientPhone,omitempty"`
	Note         *string `json:"note,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case (с парсингом времени начала)
func (r *CreateBookingRequest) ToUseCaseRequest(userID *int64) (*guestBooking.Request, error) {
	serviceIDs := r.ServiceIDs
	switch {
	case len(serviceIDs) > 0 && r.ServiceID != nil:
		return nil, errBothServiceKeys
	case r.ServiceID != nil:
		serviceIDs = []int64{*r.ServiceID}
	case len(serviceIDs) == 0:
		return nil, errNoServices
	}

	// Парсим начало слота; смещение обязательно, храним UTC
	start, err := time.Parse(time.RFC3339, r.StartUTC)
	if err != nil {
		return nil, err
	}

	return &guestBooking.Request{
		SpecialistID: r.SpecialistID,
		ServiceIDs:   serviceIDs,
		StartUTC:     start.UTC(),
		UserID:       userID,
		Contact: guestBooking.Contact{
			Name:  r.ClientName,
			Email: r.ClientEmail,
			Phone: r.ClientPhone,
		},
		Note: r.Note,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response той же формы, что GET /bookings/{id}
func FromUseCaseResponse(resp *createBooking.Response) *models.BookingResponse {
	return models.FromDomainBooking(resp.ToDomain())
}
