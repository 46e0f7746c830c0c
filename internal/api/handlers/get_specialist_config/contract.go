package get_specialist_config

import (
	"context"

	"github.com/m04kA/SMC-ClinicBooking/internal/service/policy/models"
)

type PolicyService interface {
	GetSpecialistConfig(ctx context.Context, specialistID int64) (*models.SpecialistConfigResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
