package models

import (
	"time"

	"github.com/m04kA/TourBookingService/internal/domain"
)

// Request модели

// UpdateStatusRequest смена статуса администратором
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// Response модели

// ReservationResponse ответ с данными бронирования
type ReservationResponse struct {
	ID              int64   `json:"id"`
	Date            string  `json:"date"` // "2025-08-20"
	Time            string  `json:"time"` // "10:00"
	EndTime         string  `json:"endTime"`
	TourType        string  `json:"tourType"`
	DurationMinutes int     `json:"durationMinutes"`
	PartySize       int     `json:"partySize"`
	Status          string  `json:"status"`
	ManualPayment   *bool   `json:"manualPayment,omitempty"`
	CustomerName    string  `json:"customerName"`
	CustomerEmail   string  `json:"customerEmail"`
	CustomerPhone   string  `json:"customerPhone,omitempty"`
	Notes           *string `json:"notes,omitempty"`
	CreatedBy       string  `json:"createdBy,omitempty"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

// ReservationListResponse список бронирований
type ReservationListResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
	Total        int                   `json:"total"`
}

// FromDomainReservation конвертирует domain.Reservation в ReservationResponse
func FromDomainReservation(r *domain.Reservation, durations *domain.DurationTable) *ReservationResponse {
	duration := durations.DurationMinutes(r.TourType)

	// Тур может закончиться после полуночи только при некорректной конфигурации, тогда EndTime пустой
	endTime, _ := r.Time.AddMinutes(duration)

	return &ReservationResponse{
		ID:              r.ID,
		Date:            r.Date.Format(domain.DateFormat),
		Time:            r.Time.String(),
		EndTime:         endTime.String(),
		TourType:        r.TourType,
		DurationMinutes: duration,
		PartySize:       r.PartySize,
		Status:          string(r.Status),
		ManualPayment:   r.ManualPayment,
		CustomerName:    r.CustomerName,
		CustomerEmail:   r.CustomerEmail,
		CustomerPhone:   r.CustomerPhone,
		Notes:           r.Notes,
		CreatedBy:       r.CreatedBy,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       r.UpdatedAt.Format(time.RFC3339),
	}
}

// FromDomainReservationList конвертирует список бронирований
func FromDomainReservationList(items []*domain.Reservation, durations *domain.DurationTable) *ReservationListResponse {
	out := make([]ReservationResponse, 0, len(items))
	for _, r := range items {
		out = append(out, *FromDomainReservation(r, durations))
	}
	return &ReservationListResponse{
		Reservations: out,
		Total:        len(out),
	}
}
