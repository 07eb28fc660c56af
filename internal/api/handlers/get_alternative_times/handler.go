package get_alternative_times

import (
	"errors"
	"net/http"

	"github.com/m04kA/TourBookingService/internal/api/handlers"
	"github.com/m04kA/TourBookingService/internal/domain"
	checkAvailability "github.com/m04kA/TourBookingService/internal/usecase/check_availability"
)

const (
	msgMissingParams    = "date and tourType are required"
	msgInvalidParams    = "invalid query: date must be YYYY-MM-DD, exclude HH:MM"
	msgStoreUnavailable = "availability cannot be verified right now, please try again later"
)

type Handler struct {
	useCase AlternativeTimesUseCase
	logger  Logger
}

func NewHandler(useCase AlternativeTimesUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/availability/alternatives
// Query params: date (YYYY-MM-DD), tourType, exclude (optional, HH:MM)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dateStr, tourType := q.Get("date"), q.Get("tourType")

	if dateStr == "" || tourType == "" {
		h.logger.Warn("GET /availability/alternatives - Missing query params")
		handlers.RespondBadRequest(w, msgMissingParams)
		return
	}

	useCaseReq, err := ToUseCaseRequest(dateStr, tourType, q.Get("exclude"))
	if err != nil {
		h.logger.Warn("GET /availability/alternatives - Invalid query params: %v", err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}

	result, err := h.useCase.GenerateAlternativeTimes(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, checkAvailability.ErrInvalidInput):
			h.logger.Warn("GET /availability/alternatives - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidParams)
		case errors.Is(err, domain.ErrStoreUnavailable):
			h.logger.Warn("GET /availability/alternatives - Store unavailable: date=%s", dateStr)
			handlers.RespondServiceUnavailable(w, msgStoreUnavailable)
		default:
			h.logger.Error("GET /availability/alternatives - Failed: date=%s, error=%v", dateStr, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /availability/alternatives - date=%s, tour=%s, found=%d", dateStr, tourType, len(result.Times))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
