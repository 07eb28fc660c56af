package update_reservation_status

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/TourBookingService/internal/api/handlers"
	"github.com/m04kA/TourBookingService/internal/domain"
)

const (
	msgInvalidReservationID = "invalid reservation id"
	msgInvalidRequestBody   = "invalid request body"
	msgInvalidStatus        = "status must be one of pending, confirmed, cancelled, completed"
	msgReservationNotFound  = "reservation not found"
	msgSlotTaken            = "reservation time overlaps another active reservation"
	msgStoreUnavailable     = "reservation cannot be updated right now, please try again later"
)

type Handler struct {
	service ReservationService
	logger  Logger
}

func NewHandler(service ReservationService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/reservations/{id}/status
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		h.logger.Warn("PATCH /reservations/{id}/status - Invalid reservation ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	var req UpdateStatusRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /reservations/{id}/status - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	reservation, err := h.service.UpdateStatus(r.Context(), id, req.ToServiceRequest())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			h.logger.Warn("PATCH /reservations/{id}/status - Invalid status: id=%d, status=%q", id, req.Status)
			handlers.RespondBadRequest(w, msgInvalidStatus)
		case errors.Is(err, domain.ErrReservationNotFound):
			h.logger.Warn("PATCH /reservations/{id}/status - Reservation not found: id=%d", id)
			handlers.RespondNotFound(w, msgReservationNotFound)
		case errors.Is(err, domain.ErrSlotConflict):
			h.logger.Warn("PATCH /reservations/{id}/status - Slot conflict: %v", err)
			handlers.RespondConflict(w, msgSlotTaken)
		case errors.Is(err, domain.ErrStoreUnavailable):
			h.logger.Error("PATCH /reservations/{id}/status - Store unavailable: %v", err)
			handlers.RespondServiceUnavailable(w, msgStoreUnavailable)
		default:
			h.logger.Error("PATCH /reservations/{id}/status - Failed to update status: id=%d, error=%v", id, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /reservations/{id}/status - Status updated: id=%d, status=%s", id, reservation.Status)
	handlers.RespondJSON(w, http.StatusOK, reservation)
}
