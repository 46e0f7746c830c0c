package create_booking

import (
	"context"

	createBooking "github.com/m04kA/SMC-ClinicBooking/internal/usecase/create_booking"
	guestBooking "github.com/m04kA/SMC-ClinicBooking/internal/usecase/guest_booking"
)

type GuestBookingUseCase interface {
	Execute(ctx context.Context, req *guestBooking.Request) (*createBooking.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
