package get_policies

import (
	"context"

	"github.com/m04kA/SMC-ClinicBooking/internal/service/policy/models"
)

type PolicyService interface {
	GetAll(ctx context.Context) (*models.PolicyListResponse, error)
	GetEffective(ctx context.Context, req *models.GetPolicyRequest) (*models.PolicyResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
