package get_day_slots

import (
	"time"

	"github.com/m04kA/TourBookingService/internal/domain"
	projectDay "github.com/m04kA/TourBookingService/internal/usecase/project_day"
)

// SlotResponse слот календаря
type SlotResponse struct {
	Time          string  `json:"time"`
	Status        string  `json:"status"` // available | occupied | blocked
	BlockedBy     *string `json:"blockedBy,omitempty"`
	ReservationID *int64  `json:"reservationId,omitempty"`
}

// ConductorResponse состояние машины для подписи в календаре
type ConductorResponse struct {
	ConductorID   string  `json:"conductorId"`
	State         string  `json:"state"`
	OccupiedUntil *string `json:"occupiedUntil,omitempty"`
	Stale         bool    `json:"stale,omitempty"`
}

// DaySlotsResponse HTTP response model
type DaySlotsResponse struct {
	Date      string             `json:"date"`
	Slots     []SlotResponse     `json:"slots"`
	Conductor *ConductorResponse `json:"conductor,omitempty"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *projectDay.Response) *DaySlotsResponse {
	slots := make([]SlotResponse, 0, len(resp.Slots))
	for _, s := range resp.Slots {
		slots = append(slots, SlotResponse{
			Time:          s.Time.String(),
			Status:        string(s.Status),
			BlockedBy:     s.BlockedBy,
			ReservationID: s.ReservationID,
		})
	}

	return &DaySlotsResponse{
		Date:      resp.Date.Format(domain.DateFormat),
		Slots:     slots,
		Conductor: FromConductorStatus(resp.Conductor),
	}
}

// FromConductorStatus nil-safe конвертация состояния кондуктора
func FromConductorStatus(st *domain.ConductorStatus) *ConductorResponse {
	if st == nil {
		return nil
	}

	out := &ConductorResponse{
		ConductorID: st.ConductorID,
		State:       string(st.State),
		Stale:       st.Stale,
	}
	if st.OccupiedUntil != nil {
		until := st.OccupiedUntil.Format(time.RFC3339)
		out.OccupiedUntil = &until
	}
	return out
}
