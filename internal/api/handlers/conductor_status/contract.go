package conductor_status

import (
	"context"
	"time"

	"github.com/m04kA/TourBookingService/internal/domain"
)

type ConductorTracker interface {
	Status(ctx context.Context, conductorID string) (*domain.ConductorStatus, error)
	ActiveStatus(ctx context.Context) (*domain.ConductorStatus, error)
	SetBusy(ctx context.Context, conductorID string, until time.Time) (*domain.ConductorStatus, error)
	SetAvailable(ctx context.Context, conductorID string) (*domain.ConductorStatus, error)
	SetActive(ctx context.Context, conductorID string) (*domain.ConductorStatus, error)
	SetInactive(ctx context.Context, conductorID string) (*domain.ConductorStatus, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
