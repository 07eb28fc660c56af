package create_reservation

import (
	"errors"
	"net/http"

	"github.com/m04kA/TourBookingService/internal/api/handlers"
	"github.com/m04kA/TourBookingService/internal/api/middleware"
	"github.com/m04kA/TourBookingService/internal/domain"
	createReservation "github.com/m04kA/TourBookingService/internal/usecase/create_reservation"
)

const (
	msgInvalidRequestBody = "invalid request body"
	msgMissingUserID      = "missing user id"
	msgDuplicate          = "this reservation has already been submitted"
	msgStoreUnavailable   = "reservation cannot be saved right now, please try again later"
)

type Handler struct {
	useCase CreateReservationUseCase
	logger  Logger
}

func NewHandler(useCase CreateReservationUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/reservations
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /reservations - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateReservationRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /reservations - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(userID))
	if err != nil {
		var conflict *createReservation.SlotConflictError

		switch {
		case errors.As(err, &conflict):
			h.logger.Warn("POST /reservations - Slot conflict: date=%s, time=%s, alternatives=%v",
				req.Date, req.Time, conflict.AlternativeTimes)
			handlers.RespondJSON(w, http.StatusConflict, FromSlotConflict(conflict))

		case errors.Is(err, domain.ErrDuplicateSubmission):
			h.logger.Warn("POST /reservations - Duplicate submission: date=%s, time=%s", req.Date, req.Time)
			handlers.RespondConflict(w, msgDuplicate)

		case errors.Is(err, domain.ErrInvalidInput):
			h.logger.Warn("POST /reservations - Invalid input: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, domain.ErrStoreUnavailable):
			h.logger.Error("POST /reservations - Store unavailable: request_id=%s, error=%v", middleware.GetRequestID(r.Context()), err)
			handlers.RespondServiceUnavailable(w, msgStoreUnavailable)

		default:
			h.logger.Error("POST /reservations - Failed to create reservation: request_id=%s, date=%s, time=%s, error=%v",
				middleware.GetRequestID(r.Context()), req.Date, req.Time, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /reservations - Reservation created: id=%d, date=%s, time=%s, user=%s, request_id=%s",
		result.ID, req.Date, req.Time, userID, middleware.GetRequestID(r.Context()))
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
