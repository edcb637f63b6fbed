package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"netwatch-sim/internal/hub"
)

const (
	viewerQueueSize = 8
	writeWait       = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// handleWebSocket registers the connection as a viewer. A single writer
// goroutine owns the connection for writes; the handler goroutine reads
// and echoes text frames until the client disconnects.
func (s *Server) handleWebSocket(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer ws.Close()

	viewer := hub.NewQueueViewer(viewerQueueSize)
	id := s.hub.Register(viewer)
	s.metrics.SetViewers(s.hub.Len())
	s.logger.Info("viewer connected", "viewer", id, "remote", c.ClientIP())

	replies := make(chan []byte, viewerQueueSize)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			var msg []byte
			select {
			case msg = <-viewer.C():
			case msg = <-replies:
			case <-viewer.Done():
				return
			}
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.logger.Debug("viewer write failed", "viewer", id, "err", err)
				viewer.Close()
				return
			}
		}
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			break
		}
		select {
		case replies <- append([]byte("Received: "), data...):
		case <-viewer.Done():
		}
	}

	s.hub.Unregister(id)
	viewer.Close()
	<-writerDone
	s.metrics.SetViewers(s.hub.Len())
	s.logger.Info("viewer disconnected", "viewer", id)
}
