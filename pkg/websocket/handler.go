package websocket

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

type Options struct {
	ReadBufferSize  int
	WriteBufferSize int
	PingInterval    time.Duration
	PongTimeout     time.Duration
	MaxMessageSize  int64
	AllowedOrigins  []string
}

// Handler upgrades HTTP requests and attaches the connection to the hub.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	opts     Options
}

func NewHandler(hub *Hub, opts Options) *Handler {
	return &Handler{
		hub:  hub,
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  opts.ReadBufferSize,
			WriteBufferSize: opts.WriteBufferSize,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// Serve upgrades the connection and subscribes it to rooms until it closes.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, clientID string, rooms []string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade failed: %w", err)
	}

	client := newClient(h.hub, conn, clientID, rooms, h.opts)
	h.hub.register <- client

	go client.writePump()
	go client.readPump()
	return nil
}
