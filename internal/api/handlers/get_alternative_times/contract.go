package get_alternative_times

import (
	"context"

	checkAvailability "github.com/m04kA/TourBookingService/internal/usecase/check_availability"
)

type AlternativeTimesUseCase interface {
	GenerateAlternativeTimes(ctx context.Context, req *checkAvailability.AlternativesRequest) (*checkAvailability.AlternativesResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
