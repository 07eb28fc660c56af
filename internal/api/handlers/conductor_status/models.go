package conductor_status

import (
	"time"

	"github.com/m04kA/TourBookingService/internal/domain"
)

// UpdateStatusRequest HTTP request model.
// state=busy требует occupiedUntil (RFC3339) или durationMinutes
type UpdateStatusRequest struct {
	State           string  `json:"state"` // available | busy
	OccupiedUntil   *string `json:"occupiedUntil,omitempty"`
	DurationMinutes *int    `json:"durationMinutes,omitempty"`
}

// UpdateActiveRequest HTTP request model
type UpdateActiveRequest struct {
	Active bool `json:"active"`
}

// StatusResponse HTTP response model
type StatusResponse struct {
	ConductorID   string  `json:"conductorId"`
	IsActive      bool    `json:"isActive"`
	State         string  `json:"state"`
	OccupiedUntil *string `json:"occupiedUntil,omitempty"`
	UpdatedAt     string  `json:"updatedAt"`
	Stale         bool    `json:"stale,omitempty"`
}

// BusyUntil момент окончания занятости относительно now
func (r *UpdateStatusRequest) BusyUntil(now time.Time) (time.Time, bool) {
	if r.OccupiedUntil != nil {
		until, err := time.Parse(time.RFC3339, *r.OccupiedUntil)
		if err != nil {
			return time.Time{}, false
		}
		return until, true
	}
	if r.DurationMinutes != nil {
		return now.Add(time.Duration(*r.DurationMinutes) * time.Minute), true
	}
	return time.Time{}, false
}

// FromDomainStatus конвертирует domain.ConductorStatus в StatusResponse
func FromDomainStatus(st *domain.ConductorStatus) *StatusResponse {
	resp := &StatusResponse{
		ConductorID: st.ConductorID,
		IsActive:    st.IsActive,
		State:       string(st.State),
		UpdatedAt:   st.UpdatedAt.Format(time.RFC3339),
		Stale:       st.Stale,
	}
	if st.OccupiedUntil != nil {
		until := st.OccupiedUntil.Format(time.RFC3339)
		resp.OccupiedUntil = &until
	}
	return resp
}
