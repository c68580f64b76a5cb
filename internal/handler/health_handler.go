package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger is satisfied by *database.DB; nil means the in-process backends.
type Pinger interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	backend string
	started time.Time
}

func NewHealthHandler(db Pinger, backend string) *HealthHandler {
	return &HealthHandler{db: db, backend: backend, started: time.Now()}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":  "ok",
		"backend": h.backend,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Health(ctx); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			writeSuccess(w, http.StatusServiceUnavailable, status, nil)
			return
		}
		status["database"] = "ok"
	}

	writeSuccess(w, http.StatusOK, status, nil)
}
