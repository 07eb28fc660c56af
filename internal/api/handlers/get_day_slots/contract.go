package get_day_slots

import (
	"context"

	projectDay "github.com/m04kA/TourBookingService/internal/usecase/project_day"
)

type ProjectDayUseCase interface {
	Execute(ctx context.Context, req *projectDay.Request) (*projectDay.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
