package ws

import (
	"log"
	nethttp "net/http"

	"github.com/gorilla/websocket"
)

// HandlerConfig configures the relay endpoint.
type HandlerConfig struct {
	Logger *log.Logger
}

// Handler upgrades HTTP requests and pumps client messages through the
// hub. Clients identify themselves with the id query parameter and pick
// a channel with the channel parameter.
type Handler struct {
	hub      *Hub
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// NewHandler binds a handler to a hub.
func NewHandler(hub *Hub, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{
		hub:      hub,
		logger:   logger,
		upgrader: upgrader,
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w nethttp.ResponseWriter, r *nethttp.Request) {
	h.Handle(w, r)
}

// Handle serves one client connection until it drops.
func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	clientID := r.URL.Query().Get("id")
	if clientID == "" {
		nethttp.Error(w, "missing id", nethttp.StatusBadRequest)
		return
	}
	channel := r.URL.Query().Get("channel")
	if channel == "" {
		channel = "hud"
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("ws: upgrade failed for %s: %v", clientID, err)
		return
	}

	h.hub.Subscribe(channel, clientID, conn)
	h.logger.Printf("ws: %s joined %s", clientID, channel)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			h.hub.Unsubscribe(channel, clientID, conn)
			h.logger.Printf("ws: %s left %s", clientID, channel)
			return
		}
		h.hub.Relay(channel, clientID, payload)
	}
}
