package blocked_periods

import (
	"errors"
	"net/http"

	"github.com/m04kA/TourBookingService/internal/api/handlers"
	"github.com/m04kA/TourBookingService/internal/api/middleware"
	"github.com/m04kA/TourBookingService/internal/domain"
)

const (
	msgInvalidRequestBody = "invalid request body"
	msgInvalidDateOrTime  = "invalid date or time, expected YYYY-MM-DD and HH:MM"
	msgMissingDate        = "date is required"
	msgMissingUserID      = "missing user id"
	msgInvalidRange       = "invalid range: end must be after start and cover at least one bookable slot"
	msgStoreUnavailable   = "blocked periods are temporarily unavailable, please try again later"
)

type Handler struct {
	service BlocksService
	logger  Logger
}

func NewHandler(service BlocksService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// List GET /api/v1/blocks
// Query params: date (optional, YYYY-MM-DD)
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")

	var (
		result []*domain.BlockedPeriod
		err    error
	)

	if dateStr == "" {
		result, err = h.service.ListAll(r.Context())
	} else {
		date, parseErr := domain.ParseDate(dateStr)
		if parseErr != nil {
			h.logger.Warn("GET /blocks - Invalid date: %v", parseErr)
			handlers.RespondBadRequest(w, msgInvalidDateOrTime)
			return
		}
		result, err = h.service.ListByDate(r.Context(), date)
	}

	if err != nil {
		h.respondServiceError(w, "GET /blocks", err)
		return
	}

	h.logger.Info("GET /blocks - date=%q, total=%d", dateStr, len(result))
	handlers.RespondJSON(w, http.StatusOK, FromDomainBlockList(result))
}

// Create POST /api/v1/blocks
// Идемпотентно: повторная блокировка того же дня/часа возвращает существующую запись
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateBlockRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /blocks - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	serviceReq, err := req.ToServiceRequest(userID)
	if err != nil {
		h.logger.Warn("POST /blocks - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateOrTime)
		return
	}

	block, err := h.service.Create(r.Context(), serviceReq)
	if err != nil {
		h.respondServiceError(w, "POST /blocks", err)
		return
	}

	h.logger.Info("POST /blocks - Block stored: id=%d, date=%s, user=%s", block.ID, req.Date, userID)
	handlers.RespondJSON(w, http.StatusOK, FromDomainBlock(block))
}

// BlockRange POST /api/v1/blocks/range
func (h *Handler) BlockRange(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req BlockRangeRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /blocks/range - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	serviceReq, err := req.ToServiceRequest(userID)
	if err != nil {
		h.logger.Warn("POST /blocks/range - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateOrTime)
		return
	}

	blocks, err := h.service.BlockRange(r.Context(), serviceReq)
	if err != nil {
		h.respondServiceError(w, "POST /blocks/range", err)
		return
	}

	h.logger.Info("POST /blocks/range - date=%s, from=%s, to=%s, blocks=%d", req.Date, req.From, req.To, len(blocks))
	handlers.RespondJSON(w, http.StatusOK, FromDomainBlockList(blocks))
}

// Delete DELETE /api/v1/blocks
// Query params: date (required), startTime (optional; без него снимается блокировка дня)
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dateStr := q.Get("date")
	if dateStr == "" {
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}

	date, err := domain.ParseDate(dateStr)
	if err != nil {
		h.logger.Warn("DELETE /blocks - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateOrTime)
		return
	}

	startStr := q.Get("startTime")
	startTime, err := parseOptionalTime(&startStr)
	if err != nil {
		h.logger.Warn("DELETE /blocks - Invalid start time: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateOrTime)
		return
	}

	if err := h.service.DeleteByDate(r.Context(), date, startTime); err != nil {
		h.respondServiceError(w, "DELETE /blocks", err)
		return
	}

	h.logger.Info("DELETE /blocks - Unblocked: date=%s, startTime=%q", dateStr, startStr)
	handlers.RespondNoContent(w)
}

// CleanDuplicates POST /api/v1/blocks/clean-duplicates
func (h *Handler) CleanDuplicates(w http.ResponseWriter, r *http.Request) {
	removed, err := h.service.CleanDuplicates(r.Context())
	if err != nil {
		h.respondServiceError(w, "POST /blocks/clean-duplicates", err)
		return
	}

	h.logger.Info("POST /blocks/clean-duplicates - removed=%d", removed)
	handlers.RespondJSON(w, http.StatusOK, CleanDuplicatesResponse{Removed: removed})
}

func (h *Handler) respondServiceError(w http.ResponseWriter, route string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		h.logger.Warn("%s - Invalid input: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidDateOrTime)
	case errors.Is(err, domain.ErrInvalidRange):
		h.logger.Warn("%s - Invalid range: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidRange)
	case errors.Is(err, domain.ErrBlockedByReservation):
		h.logger.Warn("%s - Rejected: %v", route, err)
		handlers.RespondConflict(w, err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		h.logger.Error("%s - Store unavailable: %v", route, err)
		handlers.RespondServiceUnavailable(w, msgStoreUnavailable)
	default:
		h.logger.Error("%s - Unexpected error: %v", route, err)
		handlers.RespondInternalError(w)
	}
}
