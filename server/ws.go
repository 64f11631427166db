package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// The deck is a local tool; cross-origin policy is the reverse
		// proxy's job when one is deployed in front.
		return true
	},
}

// stream upgrades the connection and sends the session's history followed by
// live events, one JSON message per event. The connection closes when the
// session closes, the client disconnects, or the subscriber falls too far
// behind and its channel is dropped.
func (s *Server) stream(c *gin.Context) {
	sessionID := c.Param("id")

	history, live, cancel, err := s.svc.Subscribe(c.Request.Context(), sessionID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	defer cancel()

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.l.Error("websocket upgrade failed", "session_id", sessionID, "error", err)
		return
	}
	defer ws.Close()

	s.l.Info("stream subscriber connected", "session_id", sessionID, "replay", len(history))

	for _, event := range history {
		if err := ws.WriteJSON(event); err != nil {
			s.l.Info("stream subscriber disconnected during replay",
				"session_id", sessionID, "error", err)
			return
		}
	}

	// Reads are discarded; the read loop only notices the peer going away.
	disconnected := make(chan struct{})
	go func() {
		defer close(disconnected)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-live:
			if !ok {
				// Session closed or the broadcaster dropped us.
				s.l.Info("stream ended", "session_id", sessionID)
				return
			}
			if err := ws.WriteJSON(event); err != nil {
				s.l.Info("stream subscriber disconnected",
					"session_id", sessionID, "error", err)
				return
			}
		case <-disconnected:
			return
		}
	}
}
