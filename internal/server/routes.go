package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/snapgather/snapgather/internal/relay"
)

// Configure the websocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024, // 64 KB
	WriteBufferSize: 64 * 1024, // 64 KB

	// Room IDs are the access control; the relay accepts connections from
	// any origin.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HealthCheck reports relay liveness.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Relay server is healthy."))
}

// ServeWs returns an http.HandlerFunc that handles websocket requests.
// It takes the hub as a dependency.
func ServeWs(hub *relay.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("failed to upgrade connection", "error", err)
			return
		}

		client := &relay.Client{
			Hub:  hub,
			Conn: conn,
			Send: make(chan *relay.Message, 256),
		}

		client.Hub.Register <- client

		// Start the client's read and write pumps in separate goroutines.
		// These handle the connection's whole lifecycle.
		go client.WritePump()
		go client.ReadPump()
	}
}
