package conductor_status

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/TourBookingService/internal/api/handlers"
	"github.com/m04kA/TourBookingService/internal/domain"
)

const (
	msgInvalidRequestBody = "invalid request body"
	msgInvalidState       = "state must be available or busy"
	msgInvalidBusyUntil   = "busy state requires occupiedUntil (RFC3339) or durationMinutes"
	msgBusyInPast         = "busy period must end in the future"
	msgSessionNotFound    = "conductor session not found"
	msgStoreUnavailable   = "conductor state cannot be saved right now, please try again later"
)

type Handler struct {
	tracker ConductorTracker
	logger  Logger
}

func NewHandler(tracker ConductorTracker, logger Logger) *Handler {
	return &Handler{
		tracker: tracker,
		logger:  logger,
	}
}

// GetActive GET /api/v1/conductors/active
// Публичный: состояние машины, которое видят пассажиры
func (h *Handler) GetActive(w http.ResponseWriter, r *http.Request) {
	status, err := h.tracker.ActiveStatus(r.Context())
	if err != nil {
		h.respondError(w, "GET /conductors/active", status, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, FromDomainStatus(status))
}

// Get GET /api/v1/conductors/{id}/status
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	status, err := h.tracker.Status(r.Context(), id)
	if err != nil {
		h.respondError(w, "GET /conductors/{id}/status", status, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, FromDomainStatus(status))
}

// UpdateStatus PUT /api/v1/conductors/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req UpdateStatusRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /conductors/{id}/status - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	var (
		status *domain.ConductorStatus
		err    error
	)

	switch domain.ConductorState(req.State) {
	case domain.ConductorAvailable:
		status, err = h.tracker.SetAvailable(r.Context(), id)
	case domain.ConductorBusy:
		until, ok := req.BusyUntil(time.Now())
		if !ok {
			handlers.RespondBadRequest(w, msgInvalidBusyUntil)
			return
		}
		status, err = h.tracker.SetBusy(r.Context(), id, until)
	default:
		h.logger.Warn("PUT /conductors/{id}/status - Invalid state: %q", req.State)
		handlers.RespondBadRequest(w, msgInvalidState)
		return
	}

	if err != nil {
		h.respondError(w, "PUT /conductors/{id}/status", status, err)
		return
	}

	h.logger.Info("PUT /conductors/{id}/status - conductor=%s, state=%s", id, status.State)
	handlers.RespondJSON(w, http.StatusOK, FromDomainStatus(status))
}

// UpdateActive PUT /api/v1/conductors/{id}/active
func (h *Handler) UpdateActive(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req UpdateActiveRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /conductors/{id}/active - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	var (
		status *domain.ConductorStatus
		err    error
	)
	if req.Active {
		status, err = h.tracker.SetActive(r.Context(), id)
	} else {
		status, err = h.tracker.SetInactive(r.Context(), id)
	}

	if err != nil {
		h.respondError(w, "PUT /conductors/{id}/active", status, err)
		return
	}

	h.logger.Info("PUT /conductors/{id}/active - conductor=%s, active=%t", id, status.IsActive)
	handlers.RespondJSON(w, http.StatusOK, FromDomainStatus(status))
}

// respondError при сбое записи трекер возвращает последнее подтверждённое состояние,
// оно уходит клиенту вместе с 503
func (h *Handler) respondError(w http.ResponseWriter, route string, status *domain.ConductorStatus, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		h.logger.Warn("%s - Invalid input: %v", route, err)
		handlers.RespondBadRequest(w, err.Error())
	case errors.Is(err, domain.ErrInvalidRange):
		h.logger.Warn("%s - Invalid range: %v", route, err)
		handlers.RespondBadRequest(w, msgBusyInPast)
	case errors.Is(err, domain.ErrSessionNotFound):
		h.logger.Warn("%s - Session not found", route)
		handlers.RespondNotFound(w, msgSessionNotFound)
	case errors.Is(err, domain.ErrStoreUnavailable):
		h.logger.Error("%s - Store unavailable: %v", route, err)
		if status != nil {
			w.Header().Set("Retry-After", "5")
			handlers.RespondJSON(w, http.StatusServiceUnavailable, FromDomainStatus(status))
			return
		}
		handlers.RespondServiceUnavailable(w, msgStoreUnavailable)
	default:
		h.logger.Error("%s - Unexpected error: %v", route, err)
		handlers.RespondInternalError(w)
	}
}
