package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/m04kA/TourBookingService/internal/domain"
)

var (
	// ErrPublish возвращается при ошибке публикации события
	ErrPublish = errors.New("realtime: failed to publish event")

	// ErrSubscribe возвращается при ошибке подписки на канал
	ErrSubscribe = errors.New("realtime: failed to subscribe")

	// ErrDecode возвращается для некорректного сообщения в канале
	ErrDecode = errors.New("realtime: malformed event")
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// event сообщение об изменении сессии кондуктора в канале redis
type event struct {
	ID            string     `json:"id"`
	ConductorID   string     `json:"conductorId"`
	IsActive      bool       `json:"isActive"`
	IsAvailable   bool       `json:"isAvailable"`
	OccupiedUntil *time.Time `json:"occupiedUntil,omitempty"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Feed канал изменений сессий кондукторов поверх redis pub/sub
type Feed struct {
	client  *redis.Client
	channel string
	logger  Logger
}

// NewFeed создает канал изменений
func NewFeed(client *redis.Client, channel string, logger Logger) *Feed {
	return &Feed{client: client, channel: channel, logger: logger}
}

// Publish рассылает новое состояние сессии всем подписчикам
func (f *Feed) Publish(ctx context.Context, s *domain.ConductorSession) error {
	payload, err := encodeEvent(s)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrPublish, err)
	}

	if err := f.client.Publish(ctx, f.channel, payload).Err(); err != nil {
		return fmt.Errorf("%w: channel=%s: %v", ErrPublish, f.channel, err)
	}

	return nil
}

// Subscribe вызывает onChange на каждое событие до вызова unsubscribe или отмены ctx
func (f *Feed) Subscribe(ctx context.Context, onChange func(*domain.ConductorSession)) (func(), error) {
	pubsub := f.client.Subscribe(ctx, f.channel)

	// Дожидаемся подтверждения подписки, иначе ошибки соединения всплывут только в канале
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("%w: channel=%s: %v", ErrSubscribe, f.channel, err)
	}

	f.logger.Info("Realtime: subscribed to channel=%s", f.channel)

	var once sync.Once
	done := make(chan struct{})
	unsubscribe := func() {
		once.Do(func() {
			close(done)
			if err := pubsub.Close(); err != nil {
				f.logger.Warn("Realtime: failed to close subscription channel=%s: %v", f.channel, err)
			}
		})
	}

	messages := pubsub.Channel()

	go func() {
		for {
			select {
			case <-ctx.Done():
				unsubscribe()
				return
			case <-done:
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				session, err := decodeEvent([]byte(msg.Payload))
				if err != nil {
					f.logger.Warn("Realtime: skip message on channel=%s: %v", f.channel, err)
					continue
				}
				onChange(session)
			}
		}
	}()

	return unsubscribe, nil
}

func encodeEvent(s *domain.ConductorSession) ([]byte, error) {
	return json.Marshal(event{
		ID:            uuid.NewString(),
		ConductorID:   s.ConductorID,
		IsActive:      s.IsActive,
		IsAvailable:   s.IsAvailable,
		OccupiedUntil: s.OccupiedUntil,
		UpdatedAt:     s.UpdatedAt,
	})
}

func decodeEvent(payload []byte) (*domain.ConductorSession, error) {
	var e event
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if e.ConductorID == "" {
		return nil, fmt.Errorf("%w: conductor id is empty", ErrDecode)
	}
	if _, err := uuid.Parse(e.ID); err != nil {
		return nil, fmt.Errorf("%w: event id: %v", ErrDecode, err)
	}

	return &domain.ConductorSession{
		ConductorID:   e.ConductorID,
		IsActive:      e.IsActive,
		IsAvailable:   e.IsAvailable,
		OccupiedUntil: e.OccupiedUntil,
		UpdatedAt:     e.UpdatedAt,
	}, nil
}
