package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shenikar/tourist_safety_system/internal/apperror"
	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/sirupsen/logrus"
)

type client struct {
	id      string
	hub     *Hub
	conn    *websocket.Conn
	handler ClientHandler

	send     chan []byte
	done     chan struct{}
	doneOnce sync.Once

	// channels меняется только под hub.mu
	channels []string
	// user пишется и читается только горутиной readPump
	user *models.User
}

// inboundFrame - кадр от клиента; data разбирается обработчиком конкретного типа
type inboundFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ErrorPayload - полезная нагрузка кадра error
type ErrorPayload struct {
	Reason  string            `json:"reason"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// JoinedPayload - подтверждение join
type JoinedPayload struct {
	UserID   string      `json:"user_id"`
	Role     models.Role `json:"role"`
	Channels []string    `json:"channels"`
}

func (c *client) trySend(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *client) shutdown() {
	c.doneOnce.Do(func() {
		close(c.done)
	})
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongTimeout))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.hub.logger.WithError(err).WithField("client_id", c.id).Warn("WebSocket read error")
			}
			return
		}
		// любой кадр от клиента тоже подтверждает, что соединение живо
		_ = c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongTimeout))
		c.handleMessage(message)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.shutdown()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.shutdown()
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *client) handleMessage(message []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		c.replyError(apperror.Validation(apperror.ReasonInvalidRequest, "malformed frame: %v", err))
		return
	}

	switch frame.Type {
	case models.EventPing:
		c.reply(models.EventPong, nil)
	case models.EventJoin:
		c.handleJoin(frame.Data)
	case models.EventPanicAlert:
		c.handleAction(frame.Type, models.EventAlertCreated, frame.Data, c.handler.PanicAlert)
	case models.EventLocationUpdate:
		c.handleAction(frame.Type, models.EventLocationAck, frame.Data, c.handler.LocationUpdate)
	default:
		c.replyError(apperror.Validation(apperror.ReasonInvalidRequest, "unknown frame type %q", frame.Type))
	}
}

func (c *client) handleJoin(data json.RawMessage) {
	var req JoinRequest
	if len(data) == 0 || json.Unmarshal(data, &req) != nil {
		c.replyError(apperror.Validation(apperror.ReasonInvalidRequest, "join requires role and user_id"))
		return
	}

	user, err := c.handler.Join(c.hub.ctx, req)
	if err != nil {
		c.replyError(err)
		return
	}

	channels := []string{models.UserChannel(user.ID)}
	if user.IsAuthority() {
		channels = append(channels, models.ChannelAuthority)
	}
	if err := c.hub.subscribe(c, channels); err != nil {
		return
	}
	c.user = user

	c.hub.logger.WithFields(logrus.Fields{
		"client_id": c.id,
		"user_id":   user.ID,
		"role":      user.Role,
	}).Info("Client joined")
	c.reply(models.EventJoined, JoinedPayload{UserID: user.ID, Role: user.Role, Channels: channels})
}

func (c *client) handleAction(frameType, ackType string, data json.RawMessage,
	fn func(ctx context.Context, user *models.User, data json.RawMessage) (any, error)) {
	if c.user == nil {
		c.replyError(apperror.Forbidden("%s requires join first", frameType))
		return
	}

	result, err := fn(c.hub.ctx, c.user, data)
	if err != nil {
		c.replyError(err)
		return
	}
	c.reply(ackType, result)
}

func (c *client) reply(eventType string, data any) {
	payload, err := json.Marshal(models.NewEvent(eventType, data))
	if err != nil {
		c.hub.logger.WithError(err).WithField("event", eventType).Error("Failed to marshal reply")
		return
	}
	if !c.trySend(payload) {
		c.hub.logger.WithFields(logrus.Fields{
			"client_id": c.id,
			"event":     eventType,
		}).Warn("Client send buffer full, reply dropped")
	}
}

// replyError скрывает детали внутренних ошибок
func (c *client) replyError(err error) {
	payload := ErrorPayload{Reason: apperror.ReasonOf(err), Message: "internal error"}
	switch apperror.KindOf(err) {
	case apperror.KindInternal:
		c.hub.logger.WithError(err).WithField("client_id", c.id).Error("Realtime frame failed")
	case apperror.KindTransient:
		payload.Message = "service temporarily unavailable"
		c.hub.logger.WithError(err).WithField("client_id", c.id).Warn("Realtime frame failed")
	default:
		if e, ok := apperror.As(err); ok {
			payload.Message = e.Message
			payload.Fields = e.Fields
		}
	}
	c.reply(models.EventError, payload)
}
