package watch_conductor

import "github.com/m04kA/TourBookingService/internal/domain"

type LiveState interface {
	Latest(conductorID string) (*domain.ConductorStatus, bool)
	Subscribe(buffer int) (<-chan *domain.ConductorStatus, func())
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
