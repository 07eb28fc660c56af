package conductor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/m04kA/TourBookingService/internal/domain"
	sessionRepo "github.com/m04kA/TourBookingService/internal/infra/storage/conductor"
)

// cacheEntry последнее подтверждённое хранилищем состояние и, поверх него,
// локальное изменение, которое записать не удалось
type cacheEntry struct {
	confirmed  *domain.ConductorSession
	optimistic *domain.ConductorSession
}

func (e *cacheEntry) latest() *domain.ConductorSession {
	if e.optimistic != nil {
		return e.optimistic
	}
	return e.confirmed
}

// Tracker машина состояний кондуктора: available / busy до момента T.
// Истечение занятости вычисляется при чтении, таймеров нет
type Tracker struct {
	repo      SessionRepository
	publisher ChangePublisher
	txManager TransactionManager
	clock     Clock
	logger    Logger

	mu    sync.RWMutex
	cache map[string]*cacheEntry
}

// NewTracker создает трекер. publisher может быть nil
func NewTracker(
	repo SessionRepository,
	publisher ChangePublisher,
	txManager TransactionManager,
	clock Clock,
	logger Logger,
) *Tracker {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Tracker{
		repo:      repo,
		publisher: publisher,
		txManager: txManager,
		clock:     clock,
		logger:    logger,
		cache:     make(map[string]*cacheEntry),
	}
}

// Status эффективное состояние кондуктора. Если хранилище недоступно,
// отдаёт последнее известное состояние с флагом Stale
func (t *Tracker) Status(ctx context.Context, conductorID string) (*domain.ConductorStatus, error) {
	if conductorID == "" {
		return nil, fmt.Errorf("%w: conductor id is required", domain.ErrInvalidInput)
	}

	session, err := t.repo.Get(ctx, conductorID)
	if err != nil {
		if errors.Is(err, sessionRepo.ErrSessionNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return t.fallback("Status", conductorID, err)
	}

	t.confirm(session)
	return session.Status(t.clock.Now()), nil
}

// ActiveStatus состояние кондуктора, которого сейчас видят пассажиры
func (t *Tracker) ActiveStatus(ctx context.Context) (*domain.ConductorStatus, error) {
	session, err := t.repo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, sessionRepo.ErrSessionNotFound) {
			return nil, domain.ErrSessionNotFound
		}

		if cached := t.cachedActive(); cached != nil {
			t.logger.Warn("ActiveStatus: store unavailable, serving cached conductor=%s: %v", cached.ConductorID, err)
			st := cached.Status(t.clock.Now())
			st.Stale = true
			return st, nil
		}
		t.logger.Error("ActiveStatus: store unavailable, no cached state: %v", err)
		return nil, fmt.Errorf("%w: ActiveStatus - repository error: %v", domain.ErrStoreUnavailable, err)
	}

	t.confirm(session)
	return session.Status(t.clock.Now()), nil
}

// SetBusy занят до until; until должен быть строго позже текущего момента
func (t *Tracker) SetBusy(ctx context.Context, conductorID string, until time.Time) (*domain.ConductorStatus, error) {
	now := t.clock.Now()
	if !until.After(now) {
		return nil, fmt.Errorf("%w: busy until %s is not in the future", domain.ErrInvalidRange, until.Format(time.RFC3339))
	}

	return t.apply(ctx, "SetBusy", conductorID, false, func(s *domain.ConductorSession) {
		u := until
		s.IsAvailable = false
		s.OccupiedUntil = &u
	})
}

// SetAvailable свободен
func (t *Tracker) SetAvailable(ctx context.Context, conductorID string) (*domain.ConductorStatus, error) {
	return t.apply(ctx, "SetAvailable", conductorID, false, func(s *domain.ConductorSession) {
		s.IsAvailable = true
		s.OccupiedUntil = nil
	})
}

// SetActive делает сессию видимой пассажирам; остальные сессии деактивируются (побеждает последний)
func (t *Tracker) SetActive(ctx context.Context, conductorID string) (*domain.ConductorStatus, error) {
	return t.apply(ctx, "SetActive", conductorID, true, func(s *domain.ConductorSession) {
		s.IsActive = true
	})
}

// SetInactive убирает сессию из трансляции
func (t *Tracker) SetInactive(ctx context.Context, conductorID string) (*domain.ConductorStatus, error) {
	return t.apply(ctx, "SetInactive", conductorID, false, func(s *domain.ConductorSession) {
		s.IsActive = false
	})
}

// apply читает текущее состояние, применяет изменение и записывает его.
// При ошибке записи возвращает предыдущее подтверждённое состояние вместе с ErrStoreUnavailable
func (t *Tracker) apply(
	ctx context.Context,
	op string,
	conductorID string,
	exclusive bool,
	mutate func(s *domain.ConductorSession),
) (*domain.ConductorStatus, error) {
	if conductorID == "" {
		return nil, fmt.Errorf("%w: conductor id is required", domain.ErrInvalidInput)
	}

	t.logger.Info("%s: conductor=%s", op, conductorID)

	// 1. Текущее состояние: из хранилища, при сбое из кэша, иначе новая свободная сессия
	current, err := t.repo.Get(ctx, conductorID)
	switch {
	case err == nil:
		t.confirm(current)
	case errors.Is(err, sessionRepo.ErrSessionNotFound):
		current = &domain.ConductorSession{ConductorID: conductorID, IsAvailable: true}
	default:
		t.logger.Warn("%s: failed to read conductor=%s: %v", op, conductorID, err)
		if cached := t.cachedLatest(conductorID); cached != nil {
			current = cached
		} else {
			current = &domain.ConductorSession{ConductorID: conductorID, IsAvailable: true}
		}
	}

	next := current.Clone()
	mutate(next)

	// 2. Запись
	var (
		saved       *domain.ConductorSession
		deactivated []*domain.ConductorSession
	)
	write := func(txCtx context.Context) error {
		var err error
		if exclusive {
			if deactivated, err = t.repo.DeactivateOthers(txCtx, conductorID); err != nil {
				return err
			}
		}
		saved, err = t.repo.Upsert(txCtx, next)
		return err
	}

	if exclusive && t.txManager != nil {
		err = t.txManager.Do(ctx, write)
	} else {
		err = write(ctx)
	}

	if err != nil {
		t.logger.Error("%s: failed to write conductor=%s: %v", op, conductorID, err)
		next.UpdatedAt = t.clock.Now()
		previous := t.remember(next)

		wrapped := fmt.Errorf("%w: %s - repository error: %v", domain.ErrStoreUnavailable, op, err)
		if previous == nil {
			return nil, wrapped
		}
		st := previous.Status(t.clock.Now())
		st.Stale = true
		return st, wrapped
	}

	// 3. Подтверждаем и рассылаем
	// Снятые сессии рассылаются раньше новой активной, чтобы у подписчиков
	// не было момента с двумя активными кондукторами
	if exclusive {
		t.dropOtherActive(conductorID)
	}
	for _, s := range deactivated {
		t.confirm(s)
		t.publish(ctx, op, s)
	}
	t.confirm(saved)
	t.publish(ctx, op, saved)

	t.logger.Info("%s: conductor=%s state=%s", op, conductorID, saved.StatusAt(t.clock.Now()))
	return saved.Status(t.clock.Now()), nil
}

func (t *Tracker) fallback(op, conductorID string, cause error) (*domain.ConductorStatus, error) {
	if cached := t.cachedLatest(conductorID); cached != nil {
		t.logger.Warn("%s: store unavailable, serving cached conductor=%s: %v", op, conductorID, cause)
		st := cached.Status(t.clock.Now())
		st.Stale = true
		return st, nil
	}

	t.logger.Error("%s: store unavailable, no cached state for conductor=%s: %v", op, conductorID, cause)
	return nil, fmt.Errorf("%w: %s - repository error: %v", domain.ErrStoreUnavailable, op, cause)
}

func (t *Tracker) publish(ctx context.Context, op string, s *domain.ConductorSession) {
	if t.publisher == nil {
		return
	}
	if err := t.publisher.Publish(ctx, s); err != nil {
		// Подписчики догонят состояние опросом
		t.logger.Warn("%s: failed to publish conductor=%s: %v", op, s.ConductorID, err)
	}
}

// confirm успешное чтение или запись перезаписывают кэш
func (t *Tracker) confirm(s *domain.ConductorSession) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cache[s.ConductorID] = &cacheEntry{confirmed: s.Clone()}
}

// remember сохраняет незаписанное изменение и возвращает последнее подтверждённое состояние
func (t *Tracker) remember(s *domain.ConductorSession) *domain.ConductorSession {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.cache[s.ConductorID]
	if !ok {
		entry = &cacheEntry{}
		t.cache[s.ConductorID] = entry
	}
	entry.optimistic = s.Clone()

	if entry.confirmed == nil {
		return nil
	}
	return entry.confirmed.Clone()
}

func (t *Tracker) cachedLatest(conductorID string) *domain.ConductorSession {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, ok := t.cache[conductorID]
	if !ok {
		return nil
	}
	return entry.latest().Clone()
}

func (t *Tracker) cachedActive() *domain.ConductorSession {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var active *domain.ConductorSession
	for _, entry := range t.cache {
		s := entry.latest()
		if !s.IsActive {
			continue
		}
		if active == nil || s.UpdatedAt.After(active.UpdatedAt) {
			active = s
		}
	}
	if active == nil {
		return nil
	}
	return active.Clone()
}

func (t *Tracker) dropOtherActive(conductorID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, entry := range t.cache {
		if id == conductorID {
			continue
		}
		for _, s := range []*domain.ConductorSession{entry.confirmed, entry.optimistic} {
			if s != nil {
				s.IsActive = false
			}
		}
	}
}
