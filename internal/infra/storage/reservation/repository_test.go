package reservation

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/TourBookingService/internal/domain"
	"github.com/m04kA/TourBookingService/pkg/dbmetrics"
	"github.com/m04kA/TourBookingService/pkg/types"
)

var testDate = time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)

const selectColumns = "SELECT id, booking_date, start_time, tour_type, party_size, status, manual_payment, " +
	"customer_name, customer_email, customer_phone, notes, created_by, created_at, updated_at FROM reservations"

func newMock(t *testing.T) (*Repository, sqlmock.Sqlmock, func() context.Context) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// контекст с открытой транзакцией, как его готовит txmanager
	inTx := func() context.Context {
		mock.ExpectBegin()
		tx, err := db.Begin()
		require.NoError(t, err)
		return dbmetrics.WithTx(context.Background(), &dbmetrics.SqlTxWrapper{Tx: tx})
	}

	return NewRepository(db), mock, inTx
}

func reservationRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(columns).
		AddRow(int64(1), testDate, "09:30:00", "furnas", 4, "confirmed", nil,
			"Ana", "ana@example.com", nil, nil, "user-1", now, now).
		AddRow(int64(2), testDate, "15:00:00", "panoramic", 2, "pending", true,
			"Rui", "rui@example.com", "+351000000", "late pickup", nil, now, now)
}

func TestCreate(t *testing.T) {
	repo, mock, _ := newMock(t)
	createdAt := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO reservations (booking_date,start_time,tour_type,party_size,status,")).
		WithArgs(testDate, "10:30", "furnas", 3, "pending", nil, "Ana", "ana@example.com", "", nil, "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(11), createdAt, createdAt))

	res, err := repo.Create(context.Background(), &domain.Reservation{
		Date:          testDate,
		Time:          types.TimeString("10:30"),
		TourType:      "furnas",
		PartySize:     3,
		Status:        domain.StatusPending,
		CustomerName:  "Ana",
		CustomerEmail: "ana@example.com",
		CreatedBy:     "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), res.ID)
	assert.Equal(t, createdAt, res.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock, _ := newMock(t)

	mock.ExpectQuery("INSERT INTO reservations").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	_, err := repo.Create(context.Background(), &domain.Reservation{
		Date:     testDate,
		Time:     types.TimeString("10:30"),
		TourType: "furnas",
		Status:   domain.StatusPending,
	})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, _ := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectColumns + " WHERE id = $1")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrReservationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListNonCancelledByDate(t *testing.T) {
	repo, mock, _ := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		selectColumns+" WHERE booking_date = $1 AND status <> $2 ORDER BY start_time ASC")).
		WithArgs("2025-08-20", "cancelled").
		WillReturnRows(reservationRows())

	list, err := repo.ListNonCancelledByDate(context.Background(), testDate)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, types.TimeString("09:30"), list[0].Time)
	assert.Equal(t, domain.StatusConfirmed, list[0].Status)
	assert.Nil(t, list[0].ManualPayment)
	assert.Equal(t, "", list[0].CustomerPhone)

	assert.Equal(t, types.TimeString("15:00"), list[1].Time)
	require.NotNil(t, list[1].ManualPayment)
	assert.True(t, *list[1].ManualPayment)
	require.NotNil(t, list[1].Notes)
	assert.Equal(t, "late pickup", *list[1].Notes)
	assert.Equal(t, "", list[1].CreatedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListNonCancelledByDate_LocksRowsInTransaction(t *testing.T) {
	repo, mock, inTx := newMock(t)
	ctx := inTx()

	mock.ExpectQuery(regexp.QuoteMeta(
		selectColumns+" WHERE booking_date = $1 AND status <> $2 ORDER BY start_time ASC FOR UPDATE")).
		WithArgs("2025-08-20", "cancelled").
		WillReturnRows(sqlmock.NewRows(columns))

	list, err := repo.ListNonCancelledByDate(ctx, testDate)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListNonCancelledByDate_QueryFailure(t *testing.T) {
	repo, mock, _ := newMock(t)

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection refused"))

	_, err := repo.ListNonCancelledByDate(context.Background(), testDate)
	assert.ErrorIs(t, err, ErrExecQuery)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsDuplicate(t *testing.T) {
	repo, mock, _ := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM reservations WHERE booking_date = $1 AND customer_email = $2 AND start_time = $3 AND status <> $4")).
		WithArgs("2025-08-20", "ana@example.com", "10:30", "cancelled").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.ExistsDuplicate(context.Background(), testDate, types.TimeString("10:30"), "ana@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus(t *testing.T) {
	tests := []struct {
		name    string
		result  func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "updated",
			result: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE reservations SET status").
					WithArgs("confirmed", int64(5)).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "not found",
			result: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE reservations SET status").
					WithArgs("confirmed", int64(5)).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: ErrReservationNotFound,
		},
		{
			name: "reactivation hits unique index",
			result: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE reservations SET status").
					WillReturnError(&pq.Error{Code: "23505"})
			},
			wantErr: ErrDuplicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, _ := newMock(t)
			tt.result(mock)

			err := repo.UpdateStatus(context.Background(), 5, domain.StatusConfirmed)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo, mock, _ := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reservations WHERE id = $1")).
		WithArgs(int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 8)
	assert.ErrorIs(t, err, ErrReservationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
