package conductor

import (
	"context"
	"time"

	"github.com/m04kA/TourBookingService/internal/domain"
)

// SessionRepository интерфейс репозитория сессий кондукторов
type SessionRepository interface {
	Get(ctx context.Context, conductorID string) (*domain.ConductorSession, error)
	GetActive(ctx context.Context) (*domain.ConductorSession, error)
	Upsert(ctx context.Context, s *domain.ConductorSession) (*domain.ConductorSession, error)
	DeactivateOthers(ctx context.Context, conductorID string) ([]*domain.ConductorSession, error)
}

// SessionPoller источник состояния для периодического опроса
type SessionPoller interface {
	GetActive(ctx context.Context) (*domain.ConductorSession, error)
	ListByIDs(ctx context.Context, ids []string) ([]*domain.ConductorSession, error)
}

// ChangePublisher канал изменений (может быть nil)
type ChangePublisher interface {
	Publish(ctx context.Context, s *domain.ConductorSession) error
}

// ChangeSubscriber подписка на канал изменений
type ChangeSubscriber interface {
	Subscribe(ctx context.Context, onChange func(*domain.ConductorSession)) (func(), error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// MetricsRecorder счётчик принятых обновлений по источнику (может быть nil)
type MetricsRecorder interface {
	ObserveConductorUpdate(source string)
}

// Clock источник текущего времени
type Clock interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// SystemClock реальное время
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
