package check_availability

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

type fakeMetrics struct {
	results []string
}

func (f *fakeMetrics) ObserveAvailabilityCheck(result string) {
	f.results = append(f.results, result)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

var testDate = time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)

func reservation(id int64, at, tour string, status domain.ReservationStatus) *domain.Reservation {
	return &domain.Reservation{
		ID:        id,
		Date:      testDate,
		Time:      types.MustTimeString(at),
		TourType:  tour,
		PartySize: 2,
		Status:    status,
	}
}

func newTestUseCase(res *fakeReservationRepo, blocks *fakeBlockRepo, m MetricsRecorder) *UseCase {
	evaluator := NewEvaluator(domain.DefaultDurationTable(), domain.DefaultTimeSlotCatalog())
	return NewUseCase(res, blocks, evaluator, m, nopLogger{})
}

func TestExecute_FurnasScenario(t *testing.T) {
	res := &fakeReservationRepo{items: []*domain.Reservation{
		reservation(1, "10:00", domain.TourFurnas, domain.StatusConfirmed),
	}}
	metrics := &fakeMetrics{}
	uc := newTestUseCase(res, &fakeBlockRepo{}, metrics)

	resp, err := uc.Execute(context.Background(), &Request{
		Date: testDate, Time: "10:00", PartySize: 2, TourType: domain.TourPanoramic,
	})
	require.NoError(t, err)

	assert.False(t, resp.IsAvailable)
	assert.Equal(t, 1, resp.ConflictingCount)
	assert.Equal(t, 1, resp.MaxCapacity)
	assert.Equal(t, []types.TimeString{"11:00"}, resp.AlternativeTimes)
	assert.Equal(t, ReasonSlotConflict, resp.Reason)
	assert.Contains(t, resp.Message, "11:00")
	assert.Equal(t, []string{"slot_conflict"}, metrics.results)
}

func TestExecute_EmptyDay(t *testing.T) {
	uc := newTestUseCase(&fakeReservationRepo{}, &fakeBlockRepo{}, nil)

	for _, tour := range domain.DefaultDurationTable().TourTypes() {
		resp, err := uc.Execute(context.Background(), &Request{
			Date: testDate, Time: "12:00", PartySize: 1, TourType: tour,
		})
		require.NoError(t, err)
		assert.True(t, resp.IsAvailable, tour)
		assert.Empty(t, resp.AlternativeTimes)
		assert.Equal(t, ReasonNone, resp.Reason)
	}
}

func TestExecute_CapacityOfOne(t *testing.T) {
	res := &fakeReservationRepo{items: []*domain.Reservation{
		reservation(1, "09:00", domain.TourPanoramic, domain.StatusPending),
	}}
	uc := newTestUseCase(res, &fakeBlockRepo{}, nil)

	for _, party := range []int{1, 2, 8, 30} {
		for _, tour := range []string{domain.TourPanoramic, domain.TourNordeste, "unknown"} {
			resp, err := uc.Execute(context.Background(), &Request{
				Date: testDate, Time: "09:00", PartySize: party, TourType: tour,
			})
			require.NoError(t, err)
			assert.False(t, resp.IsAvailable, "party=%d tour=%s", party, tour)
		}
	}
}

func TestExecute_BackToBackAccepted(t *testing.T) {
	res := &fakeReservationRepo{items: []*domain.Reservation{
		reservation(1, "10:00", domain.TourFurnas, domain.StatusConfirmed),
	}}
	uc := newTestUseCase(res, &fakeBlockRepo{}, nil)

	resp, err := uc.Execute(context.Background(), &Request{
		Date: testDate, Time: "11:00", PartySize: 3, TourType: domain.TourSeteCidades,
	})
	require.NoError(t, err)
	assert.True(t, resp.IsAvailable)

	// Тур, заканчивающийся ровно в 10:00, тоже помещается
	resp, err = uc.Execute(context.Background(), &Request{
		Date: testDate, Time: "09:00", PartySize: 3, TourType: domain.TourFurnas,
	})
	require.NoError(t, err)
	assert.True(t, resp.IsAvailable)
}

func TestExecute_CancelledIgnored(t *testing.T) {
	res := &fakeReservationRepo{items: []*domain.Reservation{
		reservation(1, "10:00", domain.TourFurnas, domain.StatusCancelled),
	}}
	uc := newTestUseCase(res, &fakeBlockRepo{}, nil)

	resp, err := uc.Execute(context.Background(), &Request{
		Date: testDate, Time: "10:00", PartySize: 1, TourType: domain.TourPanoramic,
	})
	require.NoError(t, err)
	assert.True(t, resp.IsAvailable)
}

func TestExecute_GapBetweenReservations(t *testing.T) {
	res := &fakeReservationRepo{items: []*domain.Reservation{
		reservation(2, "12:00", domain.TourNordeste, domain.StatusConfirmed),  // 12:00-14:00
		reservation(1, "09:00", domain.TourLagoaFogo, domain.StatusConfirmed), // 09:00-10:30
	}}
	uc := newTestUseCase(res, &fakeBlockRepo{}, nil)

	// 60 минут помещаются между 10:30 и 12:00
	resp, err := uc.Execute(context.Background(), &Request{
		Date: testDate, Time: "09:30", PartySize: 1, TourType: domain.TourFurnas,
	})
	require.NoError(t, err)
	assert.False(t, resp.IsAvailable)
	assert.Equal(t, []types.TimeString{"10:30"}, resp.AlternativeTimes)

	// 120 минут не помещаются между 10:30 и 12:00, ближайшее окно после 14:00
	resp, err = uc.Execute(context.Background(), &Request{
		Date: testDate, Time: "09:30", PartySize: 1, TourType: domain.TourNordeste,
	})
	require.NoError(t, err)
	assert.Equal(t, []types.TimeString{"14:00"}, resp.AlternativeTimes)
}

func TestExecute_NoAlternativeBeforeClosing(t *testing.T) {
	res := &fakeReservationRepo{items: []*domain.Reservation{
		reservation(1, "16:00", domain.TourNordeste, domain.StatusConfirmed), // до 18:00
	}}
	uc := newTestUseCase(res, &fakeBlockRepo{}, nil)

	resp, err := uc.Execute(context.Background(), &Request{
		Date: testDate, Time: "16:30", PartySize: 1, TourType: domain.TourLagoaFogo,
	})
	require.NoError(t, err)
	assert.False(t, resp.IsAvailable)
	assert.Empty(t, resp.AlternativeTimes)
	assert.Contains(t, resp.Message, msgNoAlternative)
}

func TestExecute_HourBlock(t *testing.T) {
	blocks := &fakeBlockRepo{items: []*domain.BlockedPeriod{
		{ID: 1, Date: testDate, StartTime: ptr.Ptr(types.TimeString("10:30")), Reason: ptr.Ptr("maintenance")},
	}}
	uc := newTestUseCase(&fakeReservationRepo{}, blocks, nil)

	resp, err := uc.Execute(context.Background(), &Request{
		Date: testDate, Time: "10:30", PartySize: 1, TourType: domain.TourPanoramic,
	})
	require.NoError(t, err)
	assert.False(t, resp.IsAvailable)
	assert.Equal(t, ReasonBlocked, resp.Reason)
	assert.Equal(t, 0, resp.ConflictingCount)
	assert.Contains(t, resp.Message, "maintenance")
	assert.Equal(t, []types.TimeString{"12:00"}, resp.AlternativeTimes)

	// Блокировка часа не закрывает другое время
	resp, err = uc.Execute(context.Background(), &Request{
		Date: testDate, Time: "10:45", PartySize: 1, TourType: domain.TourPanoramic,
	})
	require.NoError(t, err)
	assert.True(t, resp.IsAvailable)
}

func TestExecute_TourRunningThroughBlockedHour(t *testing.T) {
	blocks := &fakeBlockRepo{items: []*domain.BlockedPeriod{
		{ID: 1, Date: testDate, StartTime: ptr.Ptr(types.TimeString("10:30"))},
	}}
	uc := newTestUseCase(&fakeReservationRepo{}, blocks, nil)

	resp, err := uc.Execute(context.Background(), &Request{
		Date: testDate, Time: "10:00", PartySize: 1, TourType: domain.TourNordeste,
	})
	require.NoError(t, err)
	assert.False(t, resp.IsAvailable)
	assert.Equal(t, ReasonBlocked, resp.Reason)
	assert.Equal(t, []types.TimeString{"12:00"}, resp.AlternativeTimes)

	// Тур, заканчивающийся ровно к заблокированному часу, проходит
	resp, err = uc.Execute(context.Background(), &Request{
		Date: testDate, Time: "09:30", PartySize: 1, TourType: domain.TourFurnas,
	})
	require.NoError(t, err)
	assert.True(t, resp.IsAvailable)
}

func TestExecute_WholeDayBlock(t *testing.T) {
	blocks := &fakeBlockRepo{items: []*domain.BlockedPeriod{{ID: 1, Date: testDate}}}
	uc := newTestUseCase(&fakeReservationRepo{}, blocks, nil)

	resp, err := uc.Execute(context.Background(), &Request{
		Date: testDate, Time: "12:00", PartySize: 1, TourType: domain.TourPanoramic,
	})
	require.NoError(t, err)
	assert.False(t, resp.IsAvailable)
	assert.Equal(t, ReasonBlocked, resp.Reason)
	assert.Empty(t, resp.AlternativeTimes)
	assert.Equal(t, msgDayBlocked, resp.Message)
}

func TestExecute_StoreUnavailableFailsClosed(t *testing.T) {
	storeErr := errors.New("connection refused")

	tests := []struct {
		name   string
		res    *fakeReservationRepo
		blocks *fakeBlockRepo
	}{
		{"reservations", &fakeReservationRepo{err: storeErr}, &fakeBlockRepo{}},
		{"blocked periods", &fakeReservationRepo{}, &fakeBlockRepo{err: storeErr}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := &fakeMetrics{}
			uc := newTestUseCase(tt.res, tt.blocks, metrics)

			resp, err := uc.Execute(context.Background(), &Request{
				Date: testDate, Time: "12:00", PartySize: 1, TourType: domain.TourPanoramic,
			})
			require.NoError(t, err)
			assert.False(t, resp.IsAvailable)
			assert.Equal(t, ReasonStoreUnavailable, resp.Reason)
			assert.Equal(t, msgStoreUnavailable, resp.Message)
			assert.Equal(t, []string{"store_unavailable"}, metrics.results)
		})
	}
}

func TestExecute_OutOfCatalogTimes(t *testing.T) {
	res := &fakeReservationRepo{items: []*domain.Reservation{
		reservation(1, "23:00", domain.TourNordeste, domain.StatusConfirmed),
	}}
	uc := newTestUseCase(res, &fakeBlockRepo{}, nil)

	resp, err := uc.Execute(context.Background(), &Request{
		Date: testDate, Time: "07:15", PartySize: 1, TourType: domain.TourPanoramic,
	})
	require.NoError(t, err)
	assert.True(t, resp.IsAvailable)

	assert.NotPanics(t, func() {
		resp, err = uc.Execute(context.Background(), &Request{
			Date: testDate, Time: "23:30", PartySize: 1, TourType: domain.TourNordeste,
		})
	})
	require.NoError(t, err)
	assert.False(t, resp.IsAvailable)
	assert.Empty(t, resp.AlternativeTimes)
}

func TestExecute_InvalidInput(t *testing.T) {
	uc := newTestUseCase(&fakeReservationRepo{}, &fakeBlockRepo{}, nil)

	tests := []struct {
		name string
		req  *Request
	}{
		{"nil", nil},
		{"no date", &Request{Time: "10:00", PartySize: 1}},
		{"bad time", &Request{Date: testDate, Time: "10h", PartySize: 1}},
		{"no party", &Request{Date: testDate, Time: "10:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestGenerateAlternativeTimes(t *testing.T) {
	res := &fakeReservationRepo{items: []*domain.Reservation{
		reservation(1, "10:00", domain.TourFurnas, domain.StatusConfirmed),
	}}
	blocks := &fakeBlockRepo{items: []*domain.BlockedPeriod{
		{ID: 1, Date: testDate, StartTime: ptr.Ptr(types.TimeString("13:30"))},
	}}
	uc := newTestUseCase(res, blocks, nil)

	resp, err := uc.GenerateAlternativeTimes(context.Background(), &AlternativesRequest{
		Date:     testDate,
		TourType: domain.TourPanoramic,
		Exclude:  ptr.Ptr(types.TimeString("09:00")),
	})
	require.NoError(t, err)
	assert.Equal(t, []types.TimeString{"12:00", "15:00", "16:30"}, resp.Times)

	// Длинный тур не помещается в последний слот до закрытия,
	// а с 12:00 прошёл бы через заблокированные 13:30
	resp, err = uc.GenerateAlternativeTimes(context.Background(), &AlternativesRequest{
		Date:     testDate,
		TourType: domain.TourNordeste,
	})
	require.NoError(t, err)
	assert.Equal(t, []types.TimeString{"15:00"}, resp.Times)
}

func TestGenerateAlternativeTimes_StoreUnavailable(t *testing.T) {
	uc := newTestUseCase(&fakeReservationRepo{err: errors.New("timeout")}, &fakeBlockRepo{}, nil)

	_, err := uc.GenerateAlternativeTimes(context.Background(), &AlternativesRequest{Date: testDate})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
