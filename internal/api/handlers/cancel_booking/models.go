package cancel_booking

import (
	"strings"

	"github.com/m04kA/SMC-ClinicBooking/internal/service/bookings/models"
)

// CancelBookingRequest HTTP request model
type CancelBookingRequest struct {
	CancellationReason *string `json:"cancellationReason,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса; пустая причина не сохраняется
func (r *CancelBookingRequest) ToServiceRequest() *models.CancelBookingRequest {
	if r.CancellationReason == nil {
		return &models.CancelBookingRequest{}
	}

	reason := strings.TrimSpace(*r.CancellationReason)
	if reason == "" {
		return &models.CancelBookingRequest{}
	}
	return &models.CancelBookingRequest{CancellationReason: &reason}
}
