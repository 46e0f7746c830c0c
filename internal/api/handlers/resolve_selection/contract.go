package resolve_selection

import (
	"context"

	resolveSelection "github.com/m04kA/SMC-ClinicBooking/internal/usecase/resolve_selection"
)

type ResolveSelectionUseCase interface {
	Execute(ctx context.Context, req *resolveSelection.Request) (*resolveSelection.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
