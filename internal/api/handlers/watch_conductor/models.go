package watch_conductor

import (
	"time"

	"github.com/m04kA/TourBookingService/internal/domain"
)

// StatusResponse HTTP response model
type StatusResponse struct {
	ConductorID   string  `json:"conductorId"`
	IsActive      bool    `json:"isActive"`
	State         string  `json:"state"`
	OccupiedUntil *string `json:"occupiedUntil,omitempty"`
	UpdatedAt     string  `json:"updatedAt"`
}

// FromDomainStatus конвертирует domain.ConductorStatus в StatusResponse
func FromDomainStatus(st *domain.ConductorStatus) *StatusResponse {
	resp := &StatusResponse{
		ConductorID: st.ConductorID,
		IsActive:    st.IsActive,
		State:       string(st.State),
		UpdatedAt:   st.UpdatedAt.Format(time.RFC3339Nano),
	}
	if st.OccupiedUntil != nil {
		until := st.OccupiedUntil.Format(time.RFC3339)
		resp.OccupiedUntil = &until
	}
	return resp
}
