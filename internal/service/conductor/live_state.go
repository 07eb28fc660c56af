package conductor

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/m04kA/TourBookingService/internal/domain"
	sessionRepo "github.com/m04kA/TourBookingService/internal/infra/storage/conductor"
)

const (
	SourcePush = "push"
	SourcePoll = "poll"

	defaultPollInterval = 30 * time.Second
)

// LiveState единый кэш "последнего состояния" кондукторов с двумя источниками
// (подписка на канал изменений и периодический опрос) и одной рассылкой потребителям
type LiveState struct {
	poller     SessionPoller
	subscriber ChangeSubscriber
	watchIDs   []string
	interval   time.Duration
	clock      Clock
	metrics    MetricsRecorder
	logger     Logger

	mu      sync.RWMutex
	latest  map[string]*domain.ConductorSession
	subs    map[int]chan *domain.ConductorStatus
	nextSub int
}

// NewLiveState создает кэш. subscriber и metrics могут быть nil.
// Пустой watchIDs означает опрос только активной сессии
func NewLiveState(
	poller SessionPoller,
	subscriber ChangeSubscriber,
	watchIDs []string,
	interval time.Duration,
	clock Clock,
	metrics MetricsRecorder,
	logger Logger,
) *LiveState {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &LiveState{
		poller:     poller,
		subscriber: subscriber,
		watchIDs:   watchIDs,
		interval:   interval,
		clock:      clock,
		metrics:    metrics,
		logger:     logger,
		latest:     make(map[string]*domain.ConductorSession),
		subs:       make(map[int]chan *domain.ConductorStatus),
	}
}

// Run запускает оба источника и блокируется до отмены ctx
func (l *LiveState) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return l.listen(ctx) })
	g.Go(func() error { return l.poll(ctx) })

	err := g.Wait()
	l.closeSubscribers()
	return err
}

// Apply принимает обновление из источника. Обновление не новее кэша отбрасывается.
// Активной в кэше остаётся только самая свежая сессия: новая активная снимает
// флаг с остальных, а более старая активная сохраняется уже неактивной.
// Возвращает true, если состояние изменилось
func (l *LiveState) Apply(source string, s *domain.ConductorSession) bool {
	if s == nil || s.ConductorID == "" {
		return false
	}

	l.mu.Lock()
	current, ok := l.latest[s.ConductorID]
	if ok && !s.UpdatedAt.After(current.UpdatedAt) {
		l.mu.Unlock()
		return false
	}

	next := s.Clone()
	changed := []*domain.ConductorSession{next}
	if next.IsActive {
		changed = append(changed, l.resolveActive(next)...)
	}
	l.latest[next.ConductorID] = next

	now := l.clock.Now()
	for _, c := range changed {
		status := c.Status(now)
		for id, ch := range l.subs {
			select {
			case ch <- status:
			default:
				l.logger.Warn("LiveState: subscriber=%d is slow, update for conductor=%s dropped", id, c.ConductorID)
			}
		}
	}
	l.mu.Unlock()

	if l.metrics != nil {
		l.metrics.ObserveConductorUpdate(source)
	}
	return true
}

// resolveActive оставляет активной одну сессию из next и уже закэшированных.
// Проигравшие кэшированные сессии становятся неактивными с меткой времени
// победителя и возвращаются для рассылки. Вызывается под l.mu
func (l *LiveState) resolveActive(next *domain.ConductorSession) []*domain.ConductorSession {
	for id, other := range l.latest {
		if id != next.ConductorID && other.IsActive && other.UpdatedAt.After(next.UpdatedAt) {
			next.IsActive = false
			return nil
		}
	}

	var demoted []*domain.ConductorSession
	for id, other := range l.latest {
		if id == next.ConductorID || !other.IsActive {
			continue
		}
		d := other.Clone()
		d.IsActive = false
		d.UpdatedAt = next.UpdatedAt
		l.latest[id] = d
		demoted = append(demoted, d)
	}
	return demoted
}

// Latest последнее известное состояние кондуктора
func (l *LiveState) Latest(conductorID string) (*domain.ConductorStatus, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s, ok := l.latest[conductorID]
	if !ok {
		return nil, false
	}
	return s.Status(l.clock.Now()), true
}

// Subscribe поток изменений. Медленный потребитель теряет промежуточные обновления,
// но не блокирует источники. cancel идемпотентен
func (l *LiveState) Subscribe(buffer int) (<-chan *domain.ConductorStatus, func()) {
	if buffer <= 0 {
		buffer = 1
	}

	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	ch := make(chan *domain.ConductorStatus, buffer)
	l.subs[id] = ch
	l.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if sub, ok := l.subs[id]; ok {
				delete(l.subs, id)
				close(sub)
			}
		})
	}

	return ch, cancel
}

func (l *LiveState) listen(ctx context.Context) error {
	if l.subscriber == nil {
		l.logger.Info("LiveState: change feed disabled, polling only")
		return nil
	}

	unsubscribe, err := l.subscriber.Subscribe(ctx, func(s *domain.ConductorSession) {
		l.Apply(SourcePush, s)
	})
	if err != nil {
		// Опрос продолжает работать и без подписки
		l.logger.Warn("LiveState: subscribe failed, polling only: %v", err)
		return nil
	}

	<-ctx.Done()
	unsubscribe()
	return nil
}

func (l *LiveState) poll(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		l.pollOnce(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (l *LiveState) pollOnce(ctx context.Context) {
	if len(l.watchIDs) == 0 {
		s, err := l.poller.GetActive(ctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, sessionRepo.ErrSessionNotFound) {
				l.logger.Warn("LiveState: poll active session failed: %v", err)
			}
			return
		}
		l.Apply(SourcePoll, s)
		return
	}

	sessions, err := l.poller.ListByIDs(ctx, l.watchIDs)
	if err != nil {
		if ctx.Err() == nil {
			l.logger.Warn("LiveState: poll sessions failed: %v", err)
		}
		return
	}
	for _, s := range sessions {
		l.Apply(SourcePoll, s)
	}
}

func (l *LiveState) closeSubscribers() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, ch := range l.subs {
		delete(l.subs, id)
		close(ch)
	}
}
