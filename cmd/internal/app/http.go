package app

import (
	"context"
	"net/http"
	"time"

	authapi "tasker/cmd/internal/auth/api"
	"tasker/cmd/internal/httpx"
	"tasker/cmd/internal/metrics"
	taskapi "tasker/cmd/internal/task/api"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

const readyTimeout = 2 * time.Second

// registerHTTP wires every route onto mux exactly once.
func registerHTTP(mux *http.ServeMux, log Logger, db Pinger, reg *metrics.Registry, auth *authapi.Handler, tasks *taskapi.Handler) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			log.Warn("readyz.db.not_ready", "err", err)
			httpx.WriteError(w, http.StatusServiceUnavailable, "not_ready", "database not ready")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	mux.Handle("GET /metrics", reg.Handler())

	auth.Register(mux)
	tasks.Register(mux)
}
