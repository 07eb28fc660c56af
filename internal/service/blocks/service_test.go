package blocks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/TourBookingService/internal/domain"
	blockRepo "github.com/m04kA/TourBookingService/internal/infra/storage/blocked_period"
	"github.com/m04kA/TourBookingService/internal/service/blocks/models"
	"github.com/m04kA/TourBookingService/pkg/ptr"
	"github.com/m04kA/TourBookingService/pkg/types"
)

type fakeBlockRepo struct {
	items     []*domain.BlockedPeriod
	nextID    int64
	createErr error
	listErr   error
	creates   int
	// failOnCreate номер вызова CreateIfAbsent, который вернёт createErr (0 - любой)
	// или проиграет гонку параллельной вставке raced
	failOnCreate int
	// raced появляется в хранилище при неудачной вставке, как будто её записал параллельный запрос
	raced *domain.BlockedPeriod
}

func (f *fakeBlockRepo) Create(_ context.Context, b *domain.BlockedPeriod) (*domain.BlockedPeriod, error) {
	f.creates++
	if f.createErr != nil {
		if f.raced != nil {
			f.items = append(f.items, f.raced)
		}
		return nil, f.createErr
	}
	f.nextID++
	b.ID = f.nextID
	b.CreatedAt = time.Now()
	f.items = append(f.items, b)
	return b, nil
}

func (f *fakeBlockRepo) CreateIfAbsent(_ context.Context, b *domain.BlockedPeriod) (*domain.BlockedPeriod, bool, error) {
	f.creates++
	if f.raced != nil && f.failOnCreate == f.creates {
		f.items = append(f.items, f.raced)
		return nil, false, nil
	}
	if f.createErr != nil && (f.failOnCreate == 0 || f.failOnCreate == f.creates) {
		return nil, false, f.createErr
	}
	if domain.FindBlock(f.items, b.Key()) != nil {
		return nil, false, nil
	}
	f.nextID++
	b.ID = f.nextID
	b.CreatedAt = time.Now()
	f.items = append(f.items, b)
	return b, true, nil
}

func (f *fakeBlockRepo) ListAll(_ context.Context) ([]*domain.BlockedPeriod, error) {
	return f.items, f.listErr
}

func (f *fakeBlockRepo) ListByDate(_ context.Context, date time.Time) ([]*domain.BlockedPeriod, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return domain.BlocksForDate(f.items, date), nil
}

func (f *fakeBlockRepo) DeleteWhere(_ context.Context, date time.Time, startTime *types.TimeString) (int64, error) {
	key := domain.NewBlockKey(date, startTime)
	kept := make([]*domain.BlockedPeriod, 0, len(f.items))
	var removed int64
	for _, b := range f.items {
		if b.Key() == key {
			removed++
			continue
		}
		kept = append(kept, b)
	}
	f.items = kept
	return removed, nil
}

func (f *fakeBlockRepo) DeleteByIDs(_ context.Context, ids []int64) (int64, error) {
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := make([]*domain.BlockedPeriod, 0, len(f.items))
	var removed int64
	for _, b := range f.items {
		if drop[b.ID] {
			removed++
			continue
		}
		kept = append(kept, b)
	}
	f.items = kept
	return removed, nil
}

type fakeReservationRepo struct {
	items []*domain.Reservation
	err   error
	calls int
}

func (f *fakeReservationRepo) ListNonCancelledByDate(_ context.Context, _ time.Time) ([]*domain.Reservation, error) {
	f.calls++
	return f.items, f.err
}

// fakeTxManager откатывает блокировки к снимку, если fn вернула ошибку
type fakeTxManager struct {
	blocks *fakeBlockRepo
}

func (f *fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	snapshot := append([]*domain.BlockedPeriod(nil), f.blocks.items...)
	if err := fn(ctx); err != nil {
		f.blocks.items = snapshot
		return err
	}
	return nil
}

type fakeMetrics struct {
	removed map[string]int
}

func (f *fakeMetrics) ObserveBlocksRemoved(reason string, count int) {
	if f.removed == nil {
		f.removed = make(map[string]int)
	}
	f.removed[reason] += count
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

var testDate = time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)

func ts(s string) *types.TimeString {
	t := types.MustTimeString(s)
	return &t
}

func newTestService(blocks *fakeBlockRepo, reservations *fakeReservationRepo, metrics *fakeMetrics) *Service {
	var recorder MetricsRecorder
	if metrics != nil {
		recorder = metrics
	}
	return NewService(blocks, reservations, &fakeTxManager{blocks: blocks}, domain.DefaultDurationTable(),
		domain.DefaultTimeSlotCatalog(), recorder, nopLogger{})
}

func TestCreate_Idempotent(t *testing.T) {
	repo := &fakeBlockRepo{}
	svc := newTestService(repo, &fakeReservationRepo{}, nil)
	ctx := context.Background()

	req := &models.CreateRequest{Date: testDate, StartTime: ts("10:00"), Reason: ptr.Ptr("maintenance"), CreatedBy: "admin"}

	first, err := svc.Create(ctx, req)
	require.NoError(t, err)
	second, err := svc.Create(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, repo.creates)
	assert.Len(t, repo.items, 1)
}

func TestCreate_ConcurrentDuplicateResolvesToExisting(t *testing.T) {
	repo := &fakeBlockRepo{
		createErr: blockRepo.ErrDuplicate,
		raced:     &domain.BlockedPeriod{ID: 7, Date: testDate, CreatedBy: "other"},
	}
	svc := newTestService(repo, &fakeReservationRepo{}, nil)

	block, err := svc.Create(context.Background(), &models.CreateRequest{Date: testDate, CreatedBy: "admin"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), block.ID)
	assert.Len(t, repo.items, 1)
}

func TestCreate_DuplicateWithoutRow(t *testing.T) {
	repo := &fakeBlockRepo{createErr: blockRepo.ErrDuplicate}
	svc := newTestService(repo, &fakeReservationRepo{}, nil)

	_, err := svc.Create(context.Background(), &models.CreateRequest{Date: testDate, CreatedBy: "admin"})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestCreate_StoreUnavailable(t *testing.T) {
	repo := &fakeBlockRepo{listErr: errors.New("connection refused")}
	svc := newTestService(repo, &fakeReservationRepo{}, nil)

	_, err := svc.Create(context.Background(), &models.CreateRequest{Date: testDate, CreatedBy: "admin"})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestCreate_InvalidInput(t *testing.T) {
	svc := newTestService(&fakeBlockRepo{}, &fakeReservationRepo{}, nil)
	bad := types.TimeString("25:00")

	_, err := svc.Create(context.Background(), &models.CreateRequest{Date: testDate, StartTime: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Create(context.Background(), &models.CreateRequest{StartTime: ts("10:00")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCleanDuplicates_KeepsNewest(t *testing.T) {
	base := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeBlockRepo{items: []*domain.BlockedPeriod{
		{ID: 1, Date: testDate, StartTime: ts("10:00"), CreatedAt: base},
		{ID: 2, Date: testDate, StartTime: ts("10:00"), CreatedAt: base.Add(2 * time.Hour)},
		{ID: 3, Date: testDate, StartTime: ts("10:00"), CreatedAt: base.Add(time.Hour)},
		{ID: 4, Date: testDate, StartTime: ts("12:00"), CreatedAt: base},
		{ID: 5, Date: testDate, CreatedAt: base},
	}}
	metrics := &fakeMetrics{}
	svc := newTestService(repo, &fakeReservationRepo{}, metrics)

	removed, err := svc.CleanDuplicates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 2, metrics.removed[removedAsDuplicate])

	ids := make([]int64, 0, len(repo.items))
	for _, b := range repo.items {
		ids = append(ids, b.ID)
	}
	assert.ElementsMatch(t, []int64{2, 4, 5}, ids)
}

func TestCleanDuplicates_TieBreaksOnID(t *testing.T) {
	at := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeBlockRepo{items: []*domain.BlockedPeriod{
		{ID: 10, Date: testDate, CreatedAt: at},
		{ID: 11, Date: testDate, CreatedAt: at},
	}}
	svc := newTestService(repo, &fakeReservationRepo{}, nil)

	removed, err := svc.CleanDuplicates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	require.Len(t, repo.items, 1)
	assert.Equal(t, int64(11), repo.items[0].ID)
}

func TestCleanDuplicates_NothingToDo(t *testing.T) {
	repo := &fakeBlockRepo{items: []*domain.BlockedPeriod{
		{ID: 1, Date: testDate, StartTime: ts("10:00")},
		{ID: 2, Date: testDate.AddDate(0, 0, 1), StartTime: ts("10:00")},
	}}
	svc := newTestService(repo, &fakeReservationRepo{}, nil)

	removed, err := svc.CleanDuplicates(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Len(t, repo.items, 2)
}

func TestDeleteByDate_HourDoesNotTouchWholeDay(t *testing.T) {
	repo := &fakeBlockRepo{items: []*domain.BlockedPeriod{
		{ID: 1, Date: testDate},
		{ID: 2, Date: testDate, StartTime: ts("10:00")},
	}}
	metrics := &fakeMetrics{}
	svc := newTestService(repo, &fakeReservationRepo{}, metrics)

	err := svc.DeleteByDate(context.Background(), testDate, ts("10:00"))
	require.NoError(t, err)
	require.Len(t, repo.items, 1)
	assert.True(t, repo.items[0].IsWholeDay())
	assert.Equal(t, 1, metrics.removed[removedByUnblock])

	err = svc.DeleteByDate(context.Background(), testDate, nil)
	require.NoError(t, err)
	assert.Empty(t, repo.items)
}

func TestDeleteByDate_ConfirmedReservationGuard(t *testing.T) {
	confirmed := &domain.Reservation{
		ID:       42,
		Date:     testDate,
		Time:     types.MustTimeString("09:30"),
		TourType: domain.TourFurnas,
		Status:   domain.StatusConfirmed,
	}
	pending := &domain.Reservation{
		ID:       43,
		Date:     testDate,
		Time:     types.MustTimeString("15:00"),
		TourType: domain.TourPanoramic,
		Status:   domain.StatusPending,
	}

	tests := []struct {
		name      string
		startTime *types.TimeString
		wantErr   error
	}{
		{"whole day with confirmed reservation", nil, domain.ErrBlockedByReservation},
		{"hour inside confirmed interval", ts("10:00"), domain.ErrBlockedByReservation},
		{"hour at confirmed end", ts("10:30"), nil},
		{"hour under pending reservation", ts("15:00"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeBlockRepo{items: []*domain.BlockedPeriod{
				{ID: 1, Date: testDate, StartTime: tt.startTime},
			}}
			svc := newTestService(repo, &fakeReservationRepo{items: []*domain.Reservation{confirmed, pending}}, nil)

			err := svc.DeleteByDate(context.Background(), testDate, tt.startTime)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), "#42")
				assert.Len(t, repo.items, 1, "block must stay in place")
				return
			}
			require.NoError(t, err)
			assert.Empty(t, repo.items)
		})
	}
}

func TestDeleteByDate_StoreUnavailable(t *testing.T) {
	repo := &fakeBlockRepo{items: []*domain.BlockedPeriod{{ID: 1, Date: testDate}}}
	svc := newTestService(repo, &fakeReservationRepo{err: errors.New("timeout")}, nil)

	err := svc.DeleteByDate(context.Background(), testDate, nil)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Len(t, repo.items, 1)
}

func TestBlockRange(t *testing.T) {
	repo := &fakeBlockRepo{}
	svc := newTestService(repo, &fakeReservationRepo{}, nil)

	blocks, err := svc.BlockRange(context.Background(), &models.BlockRangeRequest{
		Date:      testDate,
		From:      "10:00",
		To:        "14:00",
		CreatedBy: "admin",
	})
	require.NoError(t, err)

	got := make([]string, 0, len(blocks))
	for _, b := range blocks {
		got = append(got, b.StartTime.String())
	}
	assert.Equal(t, []string{"10:30", "12:00", "13:30"}, got)
}

func TestBlockRange_ReusesExistingSlots(t *testing.T) {
	repo := &fakeBlockRepo{}
	svc := newTestService(repo, &fakeReservationRepo{}, nil)
	ctx := context.Background()

	existing, err := svc.Create(ctx, &models.CreateRequest{Date: testDate, StartTime: ts("12:00"), CreatedBy: "admin"})
	require.NoError(t, err)

	blocks, err := svc.BlockRange(ctx, &models.BlockRangeRequest{Date: testDate, From: "10:00", To: "14:00", CreatedBy: "admin"})
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Equal(t, existing.ID, blocks[1].ID)
	assert.Len(t, repo.items, 3)
}

func TestBlockRange_ConcurrentInsertResolvesToExisting(t *testing.T) {
	raced := &domain.BlockedPeriod{ID: 77, Date: testDate, StartTime: ts("10:30"), CreatedBy: "other"}
	repo := &fakeBlockRepo{failOnCreate: 1, raced: raced}
	svc := newTestService(repo, &fakeReservationRepo{}, nil)

	blocks, err := svc.BlockRange(context.Background(), &models.BlockRangeRequest{Date: testDate, From: "10:00", To: "13:00", CreatedBy: "admin"})
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, int64(77), blocks[0].ID)
}

func TestBlockRange_FailureLeavesNoBlocks(t *testing.T) {
	repo := &fakeBlockRepo{createErr: errors.New("connection reset"), failOnCreate: 2}
	svc := newTestService(repo, &fakeReservationRepo{}, nil)

	blocks, err := svc.BlockRange(context.Background(), &models.BlockRangeRequest{Date: testDate, From: "09:00", To: "13:00", CreatedBy: "admin"})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Nil(t, blocks)
	assert.Equal(t, 2, repo.creates)
	assert.Empty(t, repo.items, "range must not be half applied")
}

func TestBlockRange_InvalidRange(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
	}{
		{"end before start", "14:00", "10:00"},
		{"empty range", "10:00", "10:00"},
		{"garbage", "ten", "14:00"},
		{"no catalog slots", "09:10", "10:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeBlockRepo{}
			svc := newTestService(repo, &fakeReservationRepo{}, nil)

			_, err := svc.BlockRange(context.Background(), &models.BlockRangeRequest{Date: testDate, From: tt.from, To: tt.to})
			assert.ErrorIs(t, err, domain.ErrInvalidRange)
			assert.Zero(t, repo.creates)
		})
	}
}
