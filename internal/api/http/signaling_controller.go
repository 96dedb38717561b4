package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/medatlas/teleconsult/internal/domain"
	"github.com/medatlas/teleconsult/internal/middleware"
	"github.com/medatlas/teleconsult/internal/repository"
	"github.com/medatlas/teleconsult/internal/service"
	"github.com/medatlas/teleconsult/internal/session"
	"github.com/medatlas/teleconsult/lib/logger/sl"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 64 * 1024
)

type SignalingController struct {
	signaling service.SignalingInteractor
	chat      service.ChatInteractor
	log       *slog.Logger
	upgrader  websocket.Upgrader
}

func NewSignalingController(signaling service.SignalingInteractor, chat service.ChatInteractor, log *slog.Logger) *SignalingController {
	if log == nil {
		log = slog.Default()
	}
	return &SignalingController{
		signaling: signaling,
		chat:      chat,
		log:       log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Origin filtering happens in the CORS middleware.
				return true
			},
		},
	}
}

// JoinRoom upgrades the request to a websocket, registers the caller in the
// consultation room and runs the signaling read loop until the connection
// drops or the participant leaves.
func (c *SignalingController) JoinRoom(ctx *gin.Context) {
	consultationID, err := uuid.Parse(ctx.Param("consultationID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid consultation id"})
		return
	}

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "identity required"})
		return
	}

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.log.Error("websocket upgrade failed", sl.Err(err))
		return
	}

	participant, err := c.signaling.Join(context.Background(), consultationID, identity.UserID, identity.DisplayName)
	if err != nil {
		conn.WriteJSON(domain.SignalMessage{Type: domain.SignalError, Error: joinErrorText(err)})
		conn.Close()
		return
	}
	participant.AttachSocket(conn)

	sess := session.New(participant.Initiator, nil)
	_ = sess.Joined()

	events := participant.Events
	go c.writePump(conn, events)

	c.readLoop(conn, sess, consultationID, identity, participant)
}

func (c *SignalingController) readLoop(conn *websocket.Conn, sess *session.Session, consultationID uuid.UUID, identity middleware.Identity, participant *domain.Participant) {
	left := false
	defer func() {
		conn.Close()
		if !left {
			// Transport drop without an explicit leave: the room entry
			// survives for the reconnect grace period. The handle identifies
			// this connection, so a rejoin that already superseded it is
			// left alone.
			_ = sess.Disconnected()
			c.signaling.Disconnect(consultationID, participant)
		}
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg domain.SignalMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("websocket closed unexpectedly", sl.Err(err))
			}
			return
		}
		participant.Touch()

		switch msg.Type {
		case domain.SignalChatMessage:
			c.handleChatMessage(consultationID, identity, participant, &msg)
		case domain.SignalLeave:
			left = true
			_ = c.signaling.HandleSignal(context.Background(), consultationID, identity.UserID, &msg)
			sess.End()
			return
		default:
			if msg.Type == domain.SignalOffer || msg.Type == domain.SignalAnswer {
				_ = sess.Negotiating()
			}
			if err := c.signaling.HandleSignal(context.Background(), consultationID, identity.UserID, &msg); err != nil {
				participant.EnqueueEvent(domain.SignalMessage{
					Type:  domain.SignalError,
					Error: err.Error(),
				})
			}
		}
	}
}

// handleChatMessage persists and broadcasts the message, then acknowledges
// to the sender. A failed durable write still reaches the peer; the ack
// carries success=false so the sender can mark its optimistic copy failed.
func (c *SignalingController) handleChatMessage(consultationID uuid.UUID, identity middleware.Identity, participant *domain.Participant, msg *domain.SignalMessage) {
	text := ""
	if msg.Chat != nil {
		text = msg.Chat.Text
	}

	message, err := c.chat.SendMessage(context.Background(), consultationID, identity.UserID, identity.DisplayName, text)

	ack := domain.SignalMessage{
		Type:           domain.SignalChatMessageSent,
		ConsultationID: consultationID.String(),
		Payload: map[string]any{
			"success": err == nil,
		},
	}
	if message != nil {
		ack.Payload["messageId"] = message.ID.String()
	}
	if err != nil {
		ack.Error = err.Error()
	}

	participant.EnqueueEvent(ack)
}

// writePump serializes every outbound frame through one goroutine: relayed
// signals, chat broadcasts, acks and keepalive pings. It exits when the
// participant's event channel is closed.
func (c *SignalingController) writePump(conn *websocket.Conn, events <-chan domain.SignalMessage) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case event, ok := <-events:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func joinErrorText(err error) string {
	switch {
	case errors.Is(err, service.ErrRoomFull):
		return "room is full"
	case errors.Is(err, service.ErrUnauthorizedRoomAccess):
		return "not authorized for this consultation"
	case errors.Is(err, service.ErrConsultationEnded):
		return "consultation has ended"
	case errors.Is(err, repository.ErrConsultationNotFound):
		return "consultation not found"
	default:
		return err.Error()
	}
}
