package upsert_policy

import (
	"context"

	"github.com/m04kA/SMC-ClinicBooking/internal/service/policy/models"
)

type PolicyService interface {
	Upsert(ctx context.Context, req *models.UpsertPolicyRequest) (*models.PolicyResponse, bool, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
