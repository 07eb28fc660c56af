package delete_reservation

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
	msgReservationNotFound  = "reservation not found"
	msgStoreUnavailable     = "reservation cannot be deleted right now, please try again later"
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

// Handle DELETE /api/v1/reservations/{id}
// Физическое удаление; обычная отмена - PATCH статуса в cancelled
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		h.logger.Warn("DELETE /reservations/{id} - Invalid reservation ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	if err := h.service.Purge(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, domain.ErrReservationNotFound):
			h.logger.Warn("DELETE /reservations/{id} - Reservation not found: id=%d", id)
			handlers.RespondNotFound(w, msgReservationNotFound)
		case errors.Is(err, domain.ErrStoreUnavailable):
			h.logger.Error("DELETE /reservations/{id} - Store unavailable: %v", err)
			handlers.RespondServiceUnavailable(w, msgStoreUnavailable)
		default:
			h.logger.Error("DELETE /reservations/{id} - Failed to delete reservation: id=%d, error=%v", id, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /reservations/{id} - Reservation deleted: id=%d", id)
	handlers.RespondNoContent(w)
}
