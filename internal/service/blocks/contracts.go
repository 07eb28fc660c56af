package blocks

import (
	"context"
	"time"

	"github.com/m04kA/TourBookingService/internal/domain"
	"github.com/m04kA/TourBookingService/pkg/types"
)

// BlockedPeriodRepository интерфейс репозитория блокировок
type BlockedPeriodRepository interface {
	Create(ctx context.Context, block *domain.BlockedPeriod) (*domain.BlockedPeriod, error)
	CreateIfAbsent(ctx context.Context, block *domain.BlockedPeriod) (*domain.BlockedPeriod, bool, error)
	ListAll(ctx context.Context) ([]*domain.BlockedPeriod, error)
	ListByDate(ctx context.Context, date time.Time) ([]*domain.BlockedPeriod, error)
	DeleteWhere(ctx context.Context, date time.Time, startTime *types.TimeString) (int64, error)
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
}

// ReservationRepository нужен для проверки подтверждённых бронирований перед снятием блокировки
type ReservationRepository interface {
	ListNonCancelledByDate(ctx context.Context, date time.Time) ([]*domain.Reservation, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// MetricsRecorder счётчик удалённых блокировок (может быть nil)
type MetricsRecorder interface {
	ObserveBlocksRemoved(reason string, count int)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
