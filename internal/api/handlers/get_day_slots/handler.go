package get_day_slots

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/TourBookingService/internal/api/handlers"
	"github.com/m04kA/TourBookingService/internal/domain"
	projectDay "github.com/m04kA/TourBookingService/internal/usecase/project_day"
)

const (
	msgInvalidDate      = "invalid date, expected YYYY-MM-DD"
	msgStoreUnavailable = "calendar is temporarily unavailable, please try again later"
)

type Handler struct {
	useCase ProjectDayUseCase
	logger  Logger
}

func NewHandler(useCase ProjectDayUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/days/{date}/slots
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	dateStr := mux.Vars(r)["date"]

	date, err := domain.ParseDate(dateStr)
	if err != nil {
		h.logger.Warn("GET /days/{date}/slots - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &projectDay.Request{Date: date})
	if err != nil {
		switch {
		case errors.Is(err, projectDay.ErrInvalidInput):
			h.logger.Warn("GET /days/{date}/slots - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidDate)
		case errors.Is(err, domain.ErrStoreUnavailable):
			h.logger.Warn("GET /days/{date}/slots - Store unavailable: date=%s", dateStr)
			handlers.RespondServiceUnavailable(w, msgStoreUnavailable)
		default:
			h.logger.Error("GET /days/{date}/slots - Failed to project day: date=%s, error=%v", dateStr, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /days/{date}/slots - date=%s, slots=%d", dateStr, len(result.Slots))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
