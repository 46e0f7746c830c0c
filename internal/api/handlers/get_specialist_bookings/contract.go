package get_specialist_bookings

import (
	"context"

	"github.com/m04kA/SMC-ClinicBooking/internal/service/bookings/models"
)

type BookingService interface {
	ListBySpecialist(ctx context.Context, req *models.ListBySpecialistRequest) (*models.BookingListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
