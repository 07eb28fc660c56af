package check_availability

import (
	"errors"
	"net/http"

	"github.com/m04kA/TourBookingService/internal/api/handlers"
	checkAvailability "github.com/m04kA/TourBookingService/internal/usecase/check_availability"
)

const (
	msgMissingParams = "date, time and tourType are required"
	msgInvalidParams = "invalid query: date must be YYYY-MM-DD, time HH:MM, partySize a positive number"
)

type Handler struct {
	useCase CheckAvailabilityUseCase
	logger  Logger
}

func NewHandler(useCase CheckAvailabilityUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/availability
// Query params: date (YYYY-MM-DD), time (HH:MM), tourType, partySize (optional)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dateStr, timeStr, tourType := q.Get("date"), q.Get("time"), q.Get("tourType")

	if dateStr == "" || timeStr == "" || tourType == "" {
		h.logger.Warn("GET /availability - Missing query params")
		handlers.RespondBadRequest(w, msgMissingParams)
		return
	}

	useCaseReq, err := ToUseCaseRequest(dateStr, timeStr, tourType, q.Get("partySize"))
	if err != nil {
		h.logger.Warn("GET /availability - Invalid query params: %v", err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, checkAvailability.ErrInvalidInput):
			h.logger.Warn("GET /availability - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidParams)
		default:
			h.logger.Error("GET /availability - Failed to check availability: date=%s, time=%s, error=%v",
				dateStr, timeStr, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	response := FromUseCaseResponse(result)

	// Отказ по недоступности хранилища - тот же структурированный ответ, но с 503
	if result.Reason == checkAvailability.ReasonStoreUnavailable {
		h.logger.Warn("GET /availability - Store unavailable: date=%s, time=%s", dateStr, timeStr)
		w.Header().Set("Retry-After", "5")
		handlers.RespondJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	h.logger.Info("GET /availability - date=%s, time=%s, tour=%s, available=%t",
		dateStr, timeStr, tourType, result.IsAvailable)
	handlers.RespondJSON(w, http.StatusOK, response)
}
