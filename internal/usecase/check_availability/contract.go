package check_availability

import (
	"context"
	"time"

	"github.com/m04kA/TourBookingService/internal/domain"
)

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	// ListNonCancelledByDate все бронирования дня, кроме отменённых
	ListNonCancelledByDate(ctx context.Context, date time.Time) ([]*domain.Reservation, error)
}

// BlockedPeriodRepository интерфейс репозитория блокировок
type BlockedPeriodRepository interface {
	ListByDate(ctx context.Context, date time.Time) ([]*domain.BlockedPeriod, error)
}

// MetricsRecorder счётчик результатов проверки (может быть nil)
type MetricsRecorder interface {
	ObserveAvailabilityCheck(result string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
