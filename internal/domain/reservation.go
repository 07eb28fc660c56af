package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/m04kA/TourBookingService/pkg/types"
)

// ReservationStatus статус бронирования
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
	StatusCompleted ReservationStatus = "completed"
)

// ParseReservationStatus проверяет строку статуса
func ParseReservationStatus(s string) (ReservationStatus, error) {
	switch st := ReservationStatus(s); st {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown reservation status %q", ErrInvalidInput, s)
	}
}

// Reservation бронирование тура
type Reservation struct {
	ID            int64
	Date          time.Time
	Time          types.TimeString
	TourType      string
	PartySize     int
	Status        ReservationStatus
	ManualPayment *bool // ручное подтверждение оплаты администратором

	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Notes         *string
	CreatedBy     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive true для всех статусов, кроме cancelled
func (r *Reservation) IsActive() bool {
	return r.Status != StatusCancelled
}

// IsConfirmed true только для confirmed
func (r *Reservation) IsConfirmed() bool {
	return r.Status == StatusConfirmed
}

// Interval занимаемый интервал [time, time+duration(tourType))
func (r *Reservation) Interval(durations *DurationTable) Interval {
	return NewInterval(r.Time, durations.DurationMinutes(r.TourType))
}

// ReservationParams сырые данные заявки
type ReservationParams struct {
	Date          string // "2025-08-20"
	Time          string // "10:00"
	TourType      string
	PartySize     int
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Notes         *string
	ManualPayment *bool
	CreatedBy     string
}

// NewReservation валидирует заявку и создаёт бронирование в статусе pending
func NewReservation(p ReservationParams, durations *DurationTable) (*Reservation, error) {
	date, err := ParseDate(p.Date)
	if err != nil {
		return nil, err
	}

	start, err := types.NewTimeStringFromString(p.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: time: %v", ErrInvalidInput, err)
	}

	if p.PartySize <= 0 || p.PartySize > MaxPartySize {
		return nil, fmt.Errorf("%w: party size must be between 1 and %d", ErrInvalidInput, MaxPartySize)
	}

	if !durations.Known(p.TourType) {
		return nil, fmt.Errorf("%w: unknown tour type %q", ErrInvalidInput, p.TourType)
	}

	name := strings.TrimSpace(p.CustomerName)
	if name == "" || len(name) > MaxCustomerField {
		return nil, fmt.Errorf("%w: customer name is required", ErrInvalidInput)
	}

	email := strings.TrimSpace(strings.ToLower(p.CustomerEmail))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: customer email: %v", ErrInvalidInput, err)
	}

	if p.Notes != nil && len(*p.Notes) > MaxNotesLength {
		return nil, fmt.Errorf("%w: notes exceed %d characters", ErrInvalidInput, MaxNotesLength)
	}

	return &Reservation{
		Date:          date,
		Time:          start,
		TourType:      p.TourType,
		PartySize:     p.PartySize,
		Status:        StatusPending,
		ManualPayment: p.ManualPayment,
		CustomerName:  name,
		CustomerEmail: email,
		CustomerPhone: strings.TrimSpace(p.CustomerPhone),
		Notes:         p.Notes,
		CreatedBy:     p.CreatedBy,
	}, nil
}

// ParseDate разбирает дату YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateFormat, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q: expected YYYY-MM-DD", ErrInvalidInput, s)
	}
	return d, nil
}

// SameDay сравнивает календарные даты без учёта времени
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
