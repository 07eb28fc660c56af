package watch_conductor

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/TourBookingService/internal/api/handlers"
)

// MaxWaitSeconds верхняя граница ожидания long poll
const MaxWaitSeconds = 60

const (
	defaultWait = 25 * time.Second
	maxWait     = MaxWaitSeconds * time.Second

	msgInvalidWait = "wait must be a number of seconds between 1 and 60"
)

type Handler struct {
	live   LiveState
	logger Logger
}

func NewHandler(live LiveState, logger Logger) *Handler {
	return &Handler{
		live:   live,
		logger: logger,
	}
}

// Handle GET /api/v1/conductors/{id}/watch
// Long poll: ждёт изменения состояния кондуктора до wait секунд.
// Query params: since (updatedAt из прошлого ответа, optional) - если кэш уже новее, отвечает сразу; wait (optional)
// 200 с новым состоянием или 204, если изменений не было
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	q := r.URL.Query()

	wait := defaultWait
	if s := q.Get("wait"); s != "" {
		seconds, err := strconv.Atoi(s)
		if err != nil || seconds <= 0 || time.Duration(seconds)*time.Second > maxWait {
			handlers.RespondBadRequest(w, msgInvalidWait)
			return
		}
		wait = time.Duration(seconds) * time.Second
	}

	// Подписываемся до чтения кэша, чтобы не пропустить обновление между ними
	updates, cancel := h.live.Subscribe(4)
	defer cancel()

	if since, err := time.Parse(time.RFC3339Nano, q.Get("since")); err == nil {
		if st, ok := h.live.Latest(id); ok && st.UpdatedAt.After(since) {
			handlers.RespondJSON(w, http.StatusOK, FromDomainStatus(st))
			return
		}
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-timer.C:
			handlers.RespondNoContent(w)
			return
		case st, ok := <-updates:
			if !ok {
				handlers.RespondNoContent(w)
				return
			}
			if st.ConductorID != id {
				continue
			}
			h.logger.Info("GET /conductors/{id}/watch - conductor=%s, state=%s", id, st.State)
			handlers.RespondJSON(w, http.StatusOK, FromDomainStatus(st))
			return
		}
	}
}
