package http

import (
	"log"
	"net/http"

	"github.com/fjod/go-storefront/internal/notify"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	registry *notify.Registry
	upgrader websocket.Upgrader
}

func NewWSHandler(registry *notify.Registry) *WSHandler {
	return &WSHandler{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the buyer header is the auth boundary, not the origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve upgrades the request and keeps the connection registered for the
// buyer until the peer goes away. The read loop only drains control frames;
// this channel is push-only.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	buyerEmail := getBuyerEmail(r.Context())
	if buyerEmail == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing buyer identity")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already answered the request
		log.Printf("websocket upgrade failed for %s: %v", buyerEmail, err)
		return
	}

	h.registry.Register(buyerEmail, conn)
	defer func() {
		h.registry.Unregister(buyerEmail, conn)
		_ = conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
