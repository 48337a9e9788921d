package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/shenikar/tourist_safety_system/pkg/metrics"
	"github.com/sirupsen/logrus"
)

var ErrHubClosed = errors.New("realtime hub is closed")

// Config - параметры соединений
type Config struct {
	// BufferSize - очередь исходящих кадров на одно соединение
	BufferSize     int
	PingInterval   time.Duration
	PongTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
}

func DefaultConfig() Config {
	return Config{
		BufferSize:     64,
		PingInterval:   30 * time.Second,
		PongTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxMessageSize: 4096,
	}
}

// JoinRequest - полезная нагрузка кадра join
type JoinRequest struct {
	Role   models.Role `json:"role"`
	UserID string      `json:"user_id"`
}

// ClientHandler исполняет входящие кадры клиента.
// Возвращённые данные уходят клиенту подтверждением, ошибка - кадром error.
type ClientHandler interface {
	Join(ctx context.Context, req JoinRequest) (*models.User, error)
	PanicAlert(ctx context.Context, user *models.User, data json.RawMessage) (any, error)
	LocationUpdate(ctx context.Context, user *models.User, data json.RawMessage) (any, error)
}

// Hub - каналы реального времени: authority и user:<id>.
// Доставка best-effort: медленный получатель теряет кадры, публикация никогда не блокируется.
type Hub struct {
	cfg    Config
	logger *logrus.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	channels map[string]map[*client]struct{}
	funcs    map[string][]*funcSubscriber
	clients  map[*client]struct{}
	closed   bool

	wg sync.WaitGroup
}

type funcSubscriber struct {
	events chan models.Event
}

func NewHub(cfg Config, logger *logrus.Logger) *Hub {
	def := DefaultConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = def.PongTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		cfg:      cfg,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		channels: make(map[string]map[*client]struct{}),
		funcs:    make(map[string][]*funcSubscriber),
		clients:  make(map[*client]struct{}),
	}
}

// Publish сериализует событие один раз и раздаёт его всем подписчикам канала
func (h *Hub) Publish(ctx context.Context, channel string, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.Type, err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return ErrHubClosed
	}

	for c := range h.channels[channel] {
		if !c.trySend(data) {
			metrics.BroadcastDropped(channel)
			h.logger.WithFields(logrus.Fields{
				"channel":   channel,
				"client_id": c.id,
				"event":     event.Type,
			}).Warn("Client send buffer full, event dropped")
		}
	}

	for _, sub := range h.funcs[channel] {
		select {
		case sub.events <- event:
		default:
			metrics.BroadcastDropped(channel)
			h.logger.WithFields(logrus.Fields{
				"channel": channel,
				"event":   event.Type,
			}).Warn("Subscriber queue full, event dropped")
		}
	}
	return nil
}

// SubscribeFunc вызывает fn для каждого события канала в отдельной горутине.
// Очередь ограничена BufferSize, переполнение приводит к потере событий.
func (h *Hub) SubscribeFunc(channel string, fn func(models.Event)) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}

	sub := &funcSubscriber{events: make(chan models.Event, h.cfg.BufferSize)}
	h.funcs[channel] = append(h.funcs[channel], sub)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for event := range sub.events {
			fn(event)
		}
	}()
	return nil
}

// Subscribers - число живых соединений в канале
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// Connections - число соединений, включая ещё не приславшие join
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS поднимает соединение до WebSocket и обслуживает его до закрытия
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, handler ClientHandler) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	c := &client{
		id:      uuid.NewString(),
		hub:     h,
		conn:    conn,
		handler: handler,
		send:    make(chan []byte, h.cfg.BufferSize),
		done:    make(chan struct{}),
	}

	if !h.register(c) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// Close отключает всех клиентов и дожидается подписчиков-функций
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.cancel()

	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]struct{})
	h.channels = make(map[string]map[*client]struct{})

	for _, subs := range h.funcs {
		for _, sub := range subs {
			close(sub.events)
		}
	}
	h.funcs = make(map[string][]*funcSubscriber)
	h.mu.Unlock()

	for _, c := range clients {
		metrics.ConnectionClosed()
		c.shutdown()
	}
	h.wg.Wait()
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	metrics.ConnectionOpened()
	h.logger.WithField("client_id", c.id).Debug("Client connected")
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		h.leaveLocked(c)
	}
	h.mu.Unlock()

	if ok {
		metrics.ConnectionClosed()
		h.logger.WithField("client_id", c.id).Debug("Client disconnected")
	}
	c.shutdown()
}

// subscribe переводит клиента в каналы; повторный join заменяет прежний набор
func (h *Hub) subscribe(c *client, channels []string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}
	if _, ok := h.clients[c]; !ok {
		return ErrHubClosed
	}

	h.leaveLocked(c)
	for _, ch := range channels {
		if h.channels[ch] == nil {
			h.channels[ch] = make(map[*client]struct{})
		}
		h.channels[ch][c] = struct{}{}
	}
	c.channels = channels
	return nil
}

func (h *Hub) leaveLocked(c *client) {
	for _, ch := range c.channels {
		delete(h.channels[ch], c)
		if len(h.channels[ch]) == 0 {
			delete(h.channels, ch)
		}
	}
	c.channels = nil
}
