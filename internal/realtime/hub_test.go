package realtime

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shenikar/tourist_safety_system/internal/apperror"
	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHandler знает двух пользователей и подтверждает действия эхом
type fakeHandler struct {
	users map[string]*models.User
}

func newFakeHandler() *fakeHandler {
	return &fakeHandler{users: map[string]*models.User{
		"tourist-1": {ID: "tourist-1", Role: models.RoleTourist},
		"officer-1": {ID: "officer-1", Role: models.RoleAuthority},
	}}
}

func (f *fakeHandler) Join(ctx context.Context, req JoinRequest) (*models.User, error) {
	u, ok := f.users[req.UserID]
	if !ok {
		return nil, apperror.NotFound(apperror.ReasonUserNotFound, "user %s not found", req.UserID)
	}
	if req.Role != u.Role {
		return nil, apperror.Forbidden("declared role does not match user")
	}
	return u, nil
}

func (f *fakeHandler) PanicAlert(ctx context.Context, user *models.User, data json.RawMessage) (any, error) {
	return map[string]string{"user_id": user.ID}, nil
}

func (f *fakeHandler) LocationUpdate(ctx context.Context, user *models.User, data json.RawMessage) (any, error) {
	return nil, apperror.Validation(apperror.ReasonInvalidCoordinate, "invalid coordinate")
}

type received struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	hub := NewHub(Config{BufferSize: 8, PingInterval: time.Second, PongTimeout: 5 * time.Second}, logger)
	handler := newFakeHandler()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, handler)
	}))
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})
	return hub, server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, frameType string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"type": frameType, "data": data}))
}

func read(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg received
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func join(t *testing.T, conn *websocket.Conn, role models.Role, userID string) {
	t.Helper()
	send(t, conn, models.EventJoin, JoinRequest{Role: role, UserID: userID})
	msg := read(t, conn)
	require.Equal(t, models.EventJoined, msg.Type, string(msg.Data))
}

func TestHub_JoinBindsChannels(t *testing.T) {
	hub, server := newTestHub(t)

	officer := dial(t, server)
	join(t, officer, models.RoleAuthority, "officer-1")
	tourist := dial(t, server)
	join(t, tourist, models.RoleTourist, "tourist-1")

	assert.Equal(t, 1, hub.Subscribers(models.ChannelAuthority))
	assert.Equal(t, 1, hub.Subscribers(models.UserChannel("tourist-1")))
	assert.Equal(t, 1, hub.Subscribers(models.UserChannel("officer-1")))
}

func TestHub_PublishReachesOnlyChannelMembers(t *testing.T) {
	hub, server := newTestHub(t)

	officer := dial(t, server)
	join(t, officer, models.RoleAuthority, "officer-1")
	tourist := dial(t, server)
	join(t, tourist, models.RoleTourist, "tourist-1")

	alert := &models.Alert{UserID: "tourist-1", Status: models.StatusActive}
	require.NoError(t, hub.Publish(context.Background(), models.ChannelAuthority, models.NewEvent(models.EventNewPanicAlert, alert)))
	require.NoError(t, hub.Publish(context.Background(), models.UserChannel("tourist-1"), models.NewEvent(models.EventAlertStatusUpdate, alert)))

	assert.Equal(t, models.EventNewPanicAlert, read(t, officer).Type)

	msg := read(t, tourist)
	assert.Equal(t, models.EventAlertStatusUpdate, msg.Type)
	var got models.Alert
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, "tourist-1", got.UserID)
}

func TestHub_JoinErrors(t *testing.T) {
	hub, server := newTestHub(t)
	conn := dial(t, server)

	send(t, conn, models.EventJoin, JoinRequest{Role: models.RoleAuthority, UserID: "tourist-1"})
	msg := read(t, conn)
	require.Equal(t, models.EventError, msg.Type)
	assert.Contains(t, string(msg.Data), apperror.ReasonForbidden)

	send(t, conn, models.EventJoin, JoinRequest{Role: models.RoleTourist, UserID: "ghost"})
	msg = read(t, conn)
	require.Equal(t, models.EventError, msg.Type)
	assert.Contains(t, string(msg.Data), apperror.ReasonUserNotFound)

	assert.Zero(t, hub.Subscribers(models.ChannelAuthority))
}

func TestHub_FramesBeforeJoinAreRejected(t *testing.T) {
	_, server := newTestHub(t)
	conn := dial(t, server)

	send(t, conn, models.EventPanicAlert, map[string]any{"category": "panic"})
	msg := read(t, conn)
	require.Equal(t, models.EventError, msg.Type)
	assert.Contains(t, string(msg.Data), apperror.ReasonForbidden)
}

func TestHub_ActionAcksAndErrors(t *testing.T) {
	_, server := newTestHub(t)
	conn := dial(t, server)
	join(t, conn, models.RoleTourist, "tourist-1")

	send(t, conn, models.EventPanicAlert, map[string]any{"category": "panic"})
	assert.Equal(t, models.EventAlertCreated, read(t, conn).Type)

	send(t, conn, models.EventLocationUpdate, map[string]any{"lat": 100, "lng": 0})
	msg := read(t, conn)
	require.Equal(t, models.EventError, msg.Type)
	assert.Contains(t, string(msg.Data), apperror.ReasonInvalidCoordinate)
}

func TestHub_PingAndMalformedFrames(t *testing.T) {
	_, server := newTestHub(t)
	conn := dial(t, server)

	send(t, conn, models.EventPing, nil)
	assert.Equal(t, models.EventPong, read(t, conn).Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	msg := read(t, conn)
	require.Equal(t, models.EventError, msg.Type)
	assert.Contains(t, string(msg.Data), apperror.ReasonInvalidRequest)

	send(t, conn, "teleport", nil)
	assert.Equal(t, models.EventError, read(t, conn).Type)
}

func TestHub_DisconnectUnsubscribes(t *testing.T) {
	hub, server := newTestHub(t)
	conn := dial(t, server)
	join(t, conn, models.RoleAuthority, "officer-1")
	require.Equal(t, 1, hub.Subscribers(models.ChannelAuthority))

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return hub.Subscribers(models.ChannelAuthority) == 0 && hub.Connections() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_SubscribeFuncReceivesEvents(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	hub := NewHub(Config{BufferSize: 4}, logger)

	var (
		mu  sync.Mutex
		got []string
	)
	require.NoError(t, hub.SubscribeFunc(models.ChannelAuthority, func(e models.Event) {
		mu.Lock()
		got = append(got, e.Type)
		mu.Unlock()
	}))

	ctx := context.Background()
	require.NoError(t, hub.Publish(ctx, models.ChannelAuthority, models.NewEvent(models.EventNewPanicAlert, nil)))
	require.NoError(t, hub.Publish(ctx, models.UserChannel("x"), models.NewEvent(models.EventAlertStatusUpdate, nil)))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)

	hub.Close()
	assert.Equal(t, []string{models.EventNewPanicAlert}, got)
	assert.ErrorIs(t, hub.Publish(ctx, models.ChannelAuthority, models.NewEvent(models.EventPing, nil)), ErrHubClosed)
}

func TestHub_FullSubscriberQueueDropsWithoutBlocking(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	hub := NewHub(Config{BufferSize: 1}, logger)

	release := make(chan struct{})
	require.NoError(t, hub.SubscribeFunc(models.ChannelAuthority, func(models.Event) {
		<-release
	}))

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			_ = hub.Publish(context.Background(), models.ChannelAuthority, models.NewEvent(models.EventNewPanicAlert, i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	close(release)
	hub.Close()
}
