package websocket

import (
	"context"
	"log/slog"
	"net/http"

	gorilla "github.com/gorilla/websocket"

	"hotel-pms/internal/middleware"
)

// Handler upgrades authenticated requests and attaches them to the hub.
type Handler struct {
	hub      *Hub
	upgrader gorilla.Upgrader
	done     <-chan struct{}
}

// NewHandler accepts origins from the same list the CORS middleware uses; an
// empty list or "*" accepts any origin.
func NewHandler(ctx context.Context, hub *Hub, allowedOrigins []string) *Handler {
	return &Handler{
		hub:  hub,
		done: ctx.Done(),
		upgrader: gorilla.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	username := "system"
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		username = claims.Username
	}

	client := newClient(h.hub, conn, username)
	select {
	case h.hub.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h.done)
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := map[string]struct{}{}
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
