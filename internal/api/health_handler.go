package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const readyTimeout = 3 * time.Second

// HealthHandler returns 200 if service is healthy.
func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// ReadyHandler returns 200 once the control plane, and the database when
// configured, answer.
func (a *API) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := a.orch.Ping(ctx); err != nil {
		a.log.Warn("control plane not ready", zap.Error(err))
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "control plane unavailable"})
		return
	}
	if a.db != nil {
		if err := a.db.Ping(ctx); err != nil {
			a.log.Warn("database not ready", zap.Error(err))
			WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "db unavailable"})
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
