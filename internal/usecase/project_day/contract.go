package project_day

import (
	"context"
	"time"

	"github.com/m04kA/TourBookingService/internal/domain"
)

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	ListNonCancelledByDate(ctx context.Context, date time.Time) ([]*domain.Reservation, error)
}

// BlockedPeriodRepository интерфейс репозитория блокировок
type BlockedPeriodRepository interface {
	ListByDate(ctx context.Context, date time.Time) ([]*domain.BlockedPeriod, error)
}

// ConductorStatusReader состояние живого кондуктора для подписи "занят до" (может быть nil)
type ConductorStatusReader interface {
	ActiveStatus(ctx context.Context) (*domain.ConductorStatus, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
