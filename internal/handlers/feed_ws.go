package handlers

import (
	"log"
	"net/http"

	"github.com/triptales/triptales-backend/internal/services"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

// FeedWebSocket streams journal_created events to a connected map screen.
// Authentication uses the existing session token (Authorization: Bearer, or
// ?token= for browser WebSocket clients). The connection is read-only from
// the client's point of view; inbound messages are discarded.
func FeedWebSocket(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing session token", http.StatusUnauthorized)
			return
		}
	}

	if _, ok, err := services.ValidateSession(token); err != nil || !ok {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}

	conn, err := feedUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[FeedWebSocket] upgrade failed: %v", err)
		return
	}

	connID := uuid.New().String()
	services.RegisterFeedConnection(connID, conn)
	defer func() {
		services.UnregisterFeedConnection(connID)
		conn.Close()
	}()

	// Block until the client goes away. Anything it sends is ignored.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
