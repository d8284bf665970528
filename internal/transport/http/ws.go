package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleEvents streams every issued transmission as a JSON message.
//
// @Summary     Transmission event stream
// @Description WebSocket endpoint. Each message is {"time","mode","remote","command"}.
// @Tags        events
// @Router      /ws [get]
func (t *Transport) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	stream, cancel := t.hub.Subscribe()
	defer cancel()

	// The client never sends anything useful; reading only detects when it goes away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	slog.Debug("websocket client connected", "remote_addr", r.RemoteAddr)
	for {
		select {
		case <-gone:
			slog.Debug("websocket client disconnected", "remote_addr", r.RemoteAddr)
			return
		case e, ok := <-stream:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(e); err != nil {
				slog.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}
