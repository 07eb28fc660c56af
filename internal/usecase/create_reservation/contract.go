package create_reservation

import (
	"context"
	"time"

	"github.com/m04kA/TourBookingService/internal/domain"
	"github.com/m04kA/TourBookingService/pkg/types"
)

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	ListNonCancelledByDate(ctx context.Context, date time.Time) ([]*domain.Reservation, error)
	ExistsDuplicate(ctx context.Context, date time.Time, start types.TimeString, email string) (bool, error)
	Create(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error)
}

// BlockedPeriodRepository интерфейс репозитория блокировок
type BlockedPeriodRepository interface {
	ListByDate(ctx context.Context, date time.Time) ([]*domain.BlockedPeriod, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
