package stubserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"gigachat/internal/infrastructure/push"
	"gigachat/internal/infrastructure/realtime"
	"gigachat/internal/pkg/sync/domain"
)

const socketReadTimeout = 60 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Dev stub, any origin is fine.
		return true
	},
}

// handleSocket upgrades the connection, authenticates by token and serves
// push frames until the client disconnects.
func (s *Server) handleSocket(c *gin.Context) {
	token := c.Query("token")
	user, err := s.store.userForToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the response.
		return
	}

	conn := realtime.NewConnection(user.ID, ws)
	s.hub.Attach(conn)
	defer func() {
		s.hub.Detach(conn)
		conn.Close(websocket.CloseNormalClosure, "session closed")
	}()

	_ = ws.SetReadDeadline(time.Now().Add(socketReadTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(socketReadTimeout))
	})
	ws.SetPingHandler(func(appData string) error {
		_ = ws.SetReadDeadline(time.Now().Add(socketReadTimeout))
		return ws.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(10*time.Second))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(socketReadTimeout))

		var frame push.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.logger.Warn().Err(err).Str("user", user.ID).Msg("bad socket frame dropped")
			continue
		}

		switch frame.Type {
		case push.FrameJoin:
			s.reply(conn, push.Frame{Type: push.FrameJoined, UserID: user.ID})
		case push.FrameSendMessage:
			if frame.Message == nil || frame.Message.Content == "" {
				continue
			}
			msg := s.store.appendMessage(user.ID, frame.Message.RecipientID, frame.Message.Content, time.Time{})
			s.deliver(msg)
		default:
			s.logger.Debug().Str("type", frame.Type).Msg("unsupported socket frame ignored")
		}
	}
}

// deliver pushes a receiveMessage frame to both participants. The sender's
// echo carries the same server-assigned id as the REST response, so the
// client merges exactly one record.
func (s *Server) deliver(msg domain.Message) {
	frame := push.Frame{Type: push.FrameReceiveMessage, Message: &msg}
	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}
	s.hub.NotifyUser(msg.SenderID, payload)
	if msg.RecipientID != msg.SenderID {
		s.hub.NotifyUser(msg.RecipientID, payload)
	}
}

// notifyContactAccepted delivers a friendRequestAccepted frame to userID.
func (s *Server) notifyContactAccepted(userID string, contact domain.Contact) {
	frame := push.Frame{Type: push.FrameFriendRequestAccepted, Contact: &contact}
	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}
	s.hub.NotifyUser(userID, payload)
}

func (s *Server) reply(conn *realtime.Connection, frame push.Frame) {
	if payload, err := json.Marshal(frame); err == nil {
		_ = conn.Send(payload)
	}
}
