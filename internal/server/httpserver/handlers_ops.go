package httpserver

import (
	"context"
	"net/http"
	"time"
)

const readyTimeout = 2 * time.Second

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "index", nil)
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := h.ready.PingContext(ctx); err != nil {
			h.log.Warn(r.Context(), "readiness check failed", "error", err.Error())
			writeError(w, http.StatusServiceUnavailable, "NOT_READY", "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
