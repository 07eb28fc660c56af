package project_day

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/TourBookingService/internal/domain"
	"github.com/m04kA/TourBookingService/pkg/ptr"
	"github.com/m04kA/TourBookingService/pkg/types"
)

type fakeReservationRepo struct {
	items []*domain.Reservation
	err   error
}

func (f *fakeReservationRepo) ListNonCancelledByDate(_ context.Context, _ time.Time) ([]*domain.Reservation, error) {
	return f.items, f.err
}

type fakeBlockRepo struct {
	items []*domain.BlockedPeriod
	err   error
}

func (f *fakeBlockRepo) ListByDate(_ context.Context, _ time.Time) ([]*domain.BlockedPeriod, error) {
	return f.items, f.err
}

type fakeConductor struct {
	status *domain.ConductorStatus
	err    error
}

func (f *fakeConductor) ActiveStatus(_ context.Context) (*domain.ConductorStatus, error) {
	return f.status, f.err
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

var testDate = time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)

func newProjector() *Projector {
	return NewProjector(domain.DefaultDurationTable(), domain.DefaultTimeSlotCatalog(), 0)
}

func statuses(slots []domain.TimeSlot) map[types.TimeString]domain.SlotStatus {
	out := make(map[types.TimeString]domain.SlotStatus, len(slots))
	for _, s := range slots {
		out[s.Time] = s.Status
	}
	return out
}

func TestProjectDay_HourBlockWithoutReservation(t *testing.T) {
	blocks := []*domain.BlockedPeriod{
		{ID: 1, Date: testDate, StartTime: ptr.Ptr(types.TimeString("10:30")), CreatedBy: "admin"},
	}

	slots := newProjector().ProjectDay(testDate, nil, blocks)
	got := statuses(slots)

	assert.Equal(t, domain.SlotBlocked, got["10:30"])
	assert.Equal(t, domain.SlotAvailable, got["09:00"])
	assert.Equal(t, domain.SlotAvailable, got["12:00"])
	assert.Len(t, slots, 6)
}

func TestProjectDay_Precedence(t *testing.T) {
	reservations := []*domain.Reservation{
		{ID: 7, Date: testDate, Time: "10:00", TourType: domain.TourFurnas, Status: domain.StatusConfirmed},
		{ID: 8, Date: testDate, Time: "13:30", TourType: domain.TourPanoramic, Status: domain.StatusCancelled},
		{ID: 9, Date: testDate, Time: "14:30", TourType: domain.TourFurnas, Status: domain.StatusPending},
	}
	blocks := []*domain.BlockedPeriod{
		{ID: 1, Date: testDate, StartTime: ptr.Ptr(types.TimeString("10:30")), Reason: ptr.Ptr("lunch")},
	}

	slots := newProjector().ProjectDay(testDate, reservations, blocks)
	got := statuses(slots)

	// 10:30 занят бронированием 10:00-11:00, но блокировка часа важнее
	assert.Equal(t, domain.SlotBlocked, got["10:30"])
	assert.Equal(t, domain.SlotAvailable, got["09:00"])
	assert.Equal(t, domain.SlotAvailable, got["13:30"])
	assert.Equal(t, domain.SlotOccupied, got["15:00"])

	for _, s := range slots {
		switch s.Time {
		case "10:30":
			require.NotNil(t, s.BlockedBy)
			assert.Equal(t, "lunch", *s.BlockedBy)
		case "15:00":
			require.NotNil(t, s.ReservationID)
			assert.Equal(t, int64(9), *s.ReservationID)
		}
	}
}

func TestProjectDay_WholeDayBlock(t *testing.T) {
	reservations := []*domain.Reservation{
		{ID: 7, Date: testDate, Time: "10:00", TourType: domain.TourFurnas, Status: domain.StatusConfirmed},
	}
	blocks := []*domain.BlockedPeriod{
		{ID: 1, Date: testDate, CreatedBy: "admin"},
		{ID: 2, Date: testDate.AddDate(0, 0, 1)},
	}

	slots := newProjector().ProjectDay(testDate, reservations, blocks)
	for _, s := range slots {
		assert.Equal(t, domain.SlotBlocked, s.Status, s.Time)
		require.NotNil(t, s.BlockedBy)
		assert.Equal(t, "admin", *s.BlockedBy)
	}

	// Блокировка другого дня не влияет
	slots = newProjector().ProjectDay(testDate.AddDate(0, 0, 2), nil, blocks)
	for _, s := range slots {
		assert.Equal(t, domain.SlotAvailable, s.Status)
	}
}

func TestProjectDay_SlotSpan(t *testing.T) {
	reservations := []*domain.Reservation{
		{ID: 1, Date: testDate, Time: "10:00", TourType: domain.TourPanoramic, Status: domain.StatusConfirmed},
	}

	// 09:00 + 45 минут не доходит до 10:00
	got := statuses(newProjector().ProjectDay(testDate, reservations, nil))
	assert.Equal(t, domain.SlotAvailable, got["09:00"])

	// 09:00 + 90 минут пересекается с 10:00
	wide := NewProjector(domain.DefaultDurationTable(), domain.DefaultTimeSlotCatalog(), 90)
	got = statuses(wide.ProjectDay(testDate, reservations, nil))
	assert.Equal(t, domain.SlotOccupied, got["09:00"])
}

func TestExecute(t *testing.T) {
	conductor := &fakeConductor{status: &domain.ConductorStatus{ConductorID: "c1", State: domain.ConductorAvailable}}
	uc := NewUseCase(
		&fakeReservationRepo{},
		&fakeBlockRepo{items: []*domain.BlockedPeriod{{ID: 1, Date: testDate}}},
		conductor,
		newProjector(),
		nopLogger{},
	)

	resp, err := uc.Execute(context.Background(), &Request{Date: testDate})
	require.NoError(t, err)
	assert.Len(t, resp.Slots, 6)
	assert.Equal(t, domain.SlotBlocked, resp.Slots[0].Status)
	require.NotNil(t, resp.Conductor)
	assert.Equal(t, "c1", resp.Conductor.ConductorID)

	// Ошибка трекера не ломает календарь
	conductor.err = errors.New("redis down")
	conductor.status = nil
	resp, err = uc.Execute(context.Background(), &Request{Date: testDate})
	require.NoError(t, err)
	assert.Nil(t, resp.Conductor)
}

func TestExecute_Errors(t *testing.T) {
	uc := NewUseCase(&fakeReservationRepo{err: errors.New("boom")}, &fakeBlockRepo{}, nil, newProjector(), nopLogger{})

	_, err := uc.Execute(context.Background(), &Request{Date: testDate})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	_, err = uc.Execute(context.Background(), &Request{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
