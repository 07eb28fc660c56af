package create_reservation

import (
	"time"

	"github.com/m04kA/TourBookingService/internal/domain"
	createReservation "github.com/m04kA/TourBookingService/internal/usecase/create_reservation"
	"github.com/m04kA/TourBookingService/pkg/types"
)

// CreateReservationRequest HTTP request model
type CreateReservationRequest struct {
	Date          string  `json:"date"` // "2025-08-20"
	Time          string  `json:"time"` // "10:00"
	TourType      string  `json:"tourType"`
	PartySize     int     `json:"partySize"`
	CustomerName  string  `json:"customerName"`
	CustomerEmail string  `json:"customerEmail"`
	CustomerPhone string  `json:"customerPhone,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	ManualPayment *bool   `json:"manualPayment,omitempty"`
}

// ReservationResponse HTTP response model
type ReservationResponse struct {
	ID              int64   `json:"id"`
	Date            string  `json:"date"`
	Time            string  `json:"time"`
	TourType        string  `json:"tourType"`
	DurationMinutes int     `json:"durationMinutes"`
	PartySize       int     `json:"partySize"`
	Status          string  `json:"status"`
	CustomerName    string  `json:"customerName"`
	CustomerEmail   string  `json:"customerEmail"`
	CustomerPhone   string  `json:"customerPhone,omitempty"`
	Notes           *string `json:"notes,omitempty"`
	ManualPayment   *bool   `json:"manualPayment,omitempty"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

// ConflictResponse отказ с подсказкой ближайшего свободного времени
type ConflictResponse struct {
	Error            string   `json:"error"`
	AlternativeTimes []string `json:"alternativeTimes"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case; валидирует use case
func (r *CreateReservationRequest) ToUseCaseRequest(createdBy string) *createReservation.Request {
	return &createReservation.Request{
		Date:          r.Date,
		Time:          r.Time,
		TourType:      r.TourType,
		PartySize:     r.PartySize,
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		CustomerPhone: r.CustomerPhone,
		Notes:         r.Notes,
		ManualPayment: r.ManualPayment,
		CreatedBy:     createdBy,
	}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createReservation.Response) *ReservationResponse {
	return &ReservationResponse{
		ID:              resp.ID,
		Date:            resp.Date.Format(domain.DateFormat),
		Time:            resp.Time.String(),
		TourType:        resp.TourType,
		DurationMinutes: resp.DurationMinutes,
		PartySize:       resp.PartySize,
		Status:          resp.Status,
		CustomerName:    resp.CustomerName,
		CustomerEmail:   resp.CustomerEmail,
		CustomerPhone:   resp.CustomerPhone,
		Notes:           resp.Notes,
		ManualPayment:   resp.ManualPayment,
		CreatedAt:       resp.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       resp.UpdatedAt.Format(time.RFC3339),
	}
}

// FromSlotConflict конвертирует отказ use case в тело 409
func FromSlotConflict(err *createReservation.SlotConflictError) *ConflictResponse {
	return &ConflictResponse{
		Error:            err.Message,
		AlternativeTimes: timesToStrings(err.AlternativeTimes),
	}
}

func timesToStrings(times []types.TimeString) []string {
	out := make([]string, 0, len(times))
	for _, t := range times {
		out = append(out, t.String())
	}
	return out
}
