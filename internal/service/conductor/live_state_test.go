package conductor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/TourBookingService/internal/domain"
)

type fakeSubscriber struct {
	mu       sync.Mutex
	onChange func(*domain.ConductorSession)
	ready    chan struct{}
	stopped  bool
}

func (f *fakeSubscriber) Subscribe(_ context.Context, onChange func(*domain.ConductorSession)) (func(), error) {
	f.mu.Lock()
	f.onChange = onChange
	f.mu.Unlock()
	close(f.ready)
	return func() {
		f.mu.Lock()
		f.stopped = true
		f.mu.Unlock()
	}, nil
}

func (f *fakeSubscriber) push(s *domain.ConductorSession) {
	f.mu.Lock()
	fn := f.onChange
	f.mu.Unlock()
	fn(s)
}

type countingMetrics struct {
	mu      sync.Mutex
	updates map[string]int
}

func (m *countingMetrics) ObserveConductorUpdate(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updates == nil {
		m.updates = make(map[string]int)
	}
	m.updates[source]++
}

func session(id string, available bool, updated time.Time) *domain.ConductorSession {
	return &domain.ConductorSession{ConductorID: id, IsActive: true, IsAvailable: available, UpdatedAt: updated}
}

func TestLiveState_DiscardsOlderUpdates(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)}
	metrics := &countingMetrics{}
	live := NewLiveState(newFakeSessionRepo(clock), nil, nil, time.Minute, clock, metrics, nopLogger{})

	t0 := clock.Now()
	assert.True(t, live.Apply(SourcePush, session("c1", false, t0.Add(time.Second))))
	assert.False(t, live.Apply(SourcePoll, session("c1", true, t0)), "older poll result must not win")
	assert.False(t, live.Apply(SourcePoll, session("c1", false, t0.Add(time.Second))), "same version is a duplicate")

	st, ok := live.Latest("c1")
	require.True(t, ok)
	assert.Equal(t, domain.ConductorBusy, st.State)
	assert.Equal(t, 1, metrics.updates[SourcePush])
	assert.Zero(t, metrics.updates[SourcePoll])
}

func TestLiveState_FanOut(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)}
	live := NewLiveState(newFakeSessionRepo(clock), nil, nil, time.Minute, clock, nil, nopLogger{})

	first, cancelFirst := live.Subscribe(4)
	second, cancelSecond := live.Subscribe(4)
	defer cancelSecond()

	live.Apply(SourcePush, session("c1", true, clock.Now()))

	for _, ch := range []<-chan *domain.ConductorStatus{first, second} {
		select {
		case st := <-ch:
			assert.Equal(t, "c1", st.ConductorID)
		case <-time.After(time.Second):
			t.Fatal("update was not delivered")
		}
	}

	cancelFirst()
	cancelFirst()
	_, open := <-first
	assert.False(t, open)
}

func TestLiveState_SlowSubscriberDoesNotBlock(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)}
	live := NewLiveState(newFakeSessionRepo(clock), nil, nil, time.Minute, clock, nil, nopLogger{})

	ch, cancel := live.Subscribe(1)
	defer cancel()

	for i := 1; i <= 3; i++ {
		live.Apply(SourcePush, session("c1", i%2 == 0, clock.Now().Add(time.Duration(i)*time.Second)))
	}

	assert.Len(t, ch, 1)
}

func TestLiveState_RunMergesPushAndPoll(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)}
	repo := newFakeSessionRepo(clock)
	repo.sessions["c1"] = session("c1", true, clock.Now())
	sub := &fakeSubscriber{ready: make(chan struct{})}
	metrics := &countingMetrics{}

	live := NewLiveState(repo, sub, []string{"c1"}, 10*time.Millisecond, clock, metrics, nopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- live.Run(ctx) }()

	<-sub.ready
	require.Eventually(t, func() bool {
		_, ok := live.Latest("c1")
		return ok
	}, time.Second, 5*time.Millisecond)

	sub.push(session("c1", false, clock.Now().Add(time.Minute)))

	st, ok := live.Latest("c1")
	require.True(t, ok)
	assert.Equal(t, domain.ConductorBusy, st.State)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}

	sub.mu.Lock()
	assert.True(t, sub.stopped)
	sub.mu.Unlock()

	metrics.mu.Lock()
	assert.Equal(t, 1, metrics.updates[SourcePoll])
	assert.Equal(t, 1, metrics.updates[SourcePush])
	metrics.mu.Unlock()
}

func TestLiveState_SingleActiveSession(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)}
	live := NewLiveState(newFakeSessionRepo(clock), nil, nil, time.Minute, clock, nil, nopLogger{})
	t0 := clock.Now()

	ch, cancel := live.Subscribe(4)
	defer cancel()

	require.True(t, live.Apply(SourcePush, session("c1", true, t0)))
	require.True(t, live.Apply(SourcePoll, session("c2", true, t0.Add(time.Second))))

	c1, _ := live.Latest("c1")
	assert.False(t, c1.IsActive)
	assert.True(t, c1.UpdatedAt.Equal(t0.Add(time.Second)))

	// c1 active, c2 active, c1 demoted
	require.Len(t, ch, 3)
	<-ch
	<-ch
	demoted := <-ch
	assert.Equal(t, "c1", demoted.ConductorID)
	assert.False(t, demoted.IsActive)

	// Запоздавшая активная сессия старше текущей не возвращает себе трансляцию
	require.True(t, live.Apply(SourcePush, session("c3", true, t0.Add(500*time.Millisecond))))
	c3, _ := live.Latest("c3")
	assert.False(t, c3.IsActive)
	c2, _ := live.Latest("c2")
	assert.True(t, c2.IsActive)
}
