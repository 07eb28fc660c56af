package create_reservation

import (
	"time"

	"github.com/m04kA/TourBookingService/pkg/types"
)

// Request модель запроса на создание бронирования (сырые значения, валидируются конструктором)
type Request struct {
	Date          string // "2025-08-20"
	Time          string // "10:00"
	TourType      string
	PartySize     int
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Notes         *string
	ManualPayment *bool
	CreatedBy     string // ID пользователя из X-User-ID
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID              int64
	Date            time.Time
	Time            types.TimeString
	TourType        string
	DurationMinutes int
	PartySize       int
	Status          string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	Notes           *string
	ManualPayment   *bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
