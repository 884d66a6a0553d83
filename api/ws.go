package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	nocturne "github.com/taboocollar/whole-life-inc"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Tighten for production deployments.
		return true
	},
}

const (
	wsWriteTimeout = 10 * time.Second
	wsReadTimeout  = 120 * time.Second
)

// handleWebSocket streams a session over a socket: each inbound JSON
// TurnInput yields one outbound TurnResult. The socket closes when the
// session terminates or the peer goes quiet past the read deadline.
func (s *Server) handleWebSocket(c *gin.Context) {
	sessionID := c.Param("id")
	if _, ok := s.engine.GetSession(sessionID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[API] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		var input nocturne.TurnInput
		if err := conn.ReadJSON(&input); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[API] websocket session %s read error: %v", sessionID, err)
			}
			return
		}

		result, err := s.engine.ProcessTurn(sessionID, input)
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err != nil {
			conn.WriteJSON(gin.H{"error": err.Error()})
			return
		}
		if err := conn.WriteJSON(result); err != nil {
			log.Printf("[API] websocket session %s write error: %v", sessionID, err)
			return
		}
		if !result.SessionActive {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session terminated"))
			return
		}
	}
}
