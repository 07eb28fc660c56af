package create_reservation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/TourBookingService/internal/api/middleware"
	"github.com/m04kA/TourBookingService/internal/domain"
	createReservation "github.com/m04kA/TourBookingService/internal/usecase/create_reservation"
	"github.com/m04kA/TourBookingService/pkg/types"
)

type fakeUseCase struct {
	got  *createReservation.Request
	resp *createReservation.Response
	err  error
}

func (f *fakeUseCase) Execute(_ context.Context, req *createReservation.Request) (*createReservation.Response, error) {
	f.got = req
	return f.resp, f.err
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

const body = `{"date":"2025-08-20","time":"10:00","tourType":"furnas","partySize":2,` +
	`"customerName":"Ana","customerEmail":"ana@example.com"}`

func serve(uc *fakeUseCase, userID, payload string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(payload))
	if userID != "" {
		req.Header.Set(middleware.UserIDHeader, userID)
	}
	rec := httptest.NewRecorder()
	middleware.Auth(http.HandlerFunc(NewHandler(uc, nopLogger{}).Handle)).ServeHTTP(rec, req)
	return rec
}

func TestHandle_Created(t *testing.T) {
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	uc := &fakeUseCase{resp: &createReservation.Response{
		ID:              7,
		Date:            time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC),
		Time:            types.TimeString("10:00"),
		TourType:        "furnas",
		DurationMinutes: 60,
		PartySize:       2,
		Status:          string(domain.StatusPending),
		CustomerName:    "Ana",
		CustomerEmail:   "ana@example.com",
		CreatedAt:       now,
		UpdatedAt:       now,
	}}

	rec := serve(uc, "user-1", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got ReservationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, "2025-08-20", got.Date)
	assert.Equal(t, 60, got.DurationMinutes)
	assert.Equal(t, "user-1", uc.got.CreatedBy)
}

func TestHandle_SlotConflictCarriesAlternatives(t *testing.T) {
	uc := &fakeUseCase{err: &createReservation.SlotConflictError{
		Message:          "requested time overlaps an existing reservation",
		AlternativeTimes: []types.TimeString{"10:30"},
	}}

	rec := serve(uc, "user-1", body)
	require.Equal(t, http.StatusConflict, rec.Code)

	var got ConflictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []string{"10:30"}, got.AlternativeTimes)
	assert.NotEmpty(t, got.Error)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name       string
		userID     string
		payload    string
		err        error
		wantStatus int
	}{
		{name: "no user", payload: body, wantStatus: http.StatusUnauthorized},
		{name: "malformed json", userID: "user-1", payload: `{"date":`, wantStatus: http.StatusBadRequest},
		{name: "unknown field", userID: "user-1", payload: `{"seats":3}`, wantStatus: http.StatusBadRequest},
		{
			name: "invalid input", userID: "user-1", payload: body,
			err:        fmt.Errorf("%w: party size must be positive", domain.ErrInvalidInput),
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "duplicate submission", userID: "user-1", payload: body,
			err:        fmt.Errorf("%w: same email and time", domain.ErrDuplicateSubmission),
			wantStatus: http.StatusConflict,
		},
		{
			name: "store unavailable", userID: "user-1", payload: body,
			err:        fmt.Errorf("%w: connection refused", domain.ErrStoreUnavailable),
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name: "unexpected", userID: "user-1", payload: body,
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(&fakeUseCase{err: tt.err}, tt.userID, tt.payload)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
