package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/edithfert/fertpro/models"
	"github.com/edithfert/fertpro/pkg"
	"github.com/edithfert/fertpro/pkg/soilsim"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	// afterGet runs once Get has returned its snapshot.
	afterGet func(s *models.Session)
}

func (f *fakeSessions) Validate(token string) (*models.SessionClaims, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[token]; !ok {
		return nil, pkg.ErrUnauthorized
	}
	return &models.SessionClaims{SessionID: token}, nil
}

func (f *fakeSessions) Get(_ context.Context, id string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	cp := s.Clone()
	if f.afterGet != nil {
		f.afterGet(s)
	}
	return &cp, nil
}

func (f *fakeSessions) WithView(_ context.Context, id string, fn func(models.View)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return pkg.ErrNotFound
	}
	fn(s.View)
	return nil
}

type harness struct {
	hub    *Hub
	server *httptest.Server
}

func newHarness(t *testing.T, sessions map[string]*models.Session) *harness {
	t.Helper()
	return newHarnessWith(t, &fakeSessions{sessions: sessions})
}

func newHarnessWith(t *testing.T, sessions *fakeSessions) *harness {
	t.Helper()

	hub := NewHub(soilsim.New(10*time.Millisecond), zap.NewNop())
	handler := NewHandler(hub, sessions, nil)
	server := httptest.NewServer(http.HandlerFunc(handler.HandleConnection))

	t.Cleanup(func() {
		hub.Shutdown()
		server.Close()
	})
	return &harness{hub: hub, server: server}
}

func (h *harness) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(h.server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

// readUntil skips events until one with op arrives.
func readUntil(t *testing.T, conn *websocket.Conn, op string) Event {
	t.Helper()
	for i := 0; i < 100; i++ {
		if ev := readEvent(t, conn); ev.Op == op {
			return ev
		}
	}
	t.Fatalf("no %s event received", op)
	return Event{}
}

func TestHandler_RejectsMissingAndBadToken(t *testing.T) {
	h := newHarness(t, map[string]*models.Session{})
	url := "ws" + strings.TrimPrefix(h.server.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url+"?token=nope", nil)
	require.Error(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestHandler_ReadyAndHeartbeat(t *testing.T) {
	h := newHarness(t, map[string]*models.Session{
		"s1": {ID: "s1", View: models.ViewHome},
	})
	conn := h.dial(t, "s1")

	ready := readEvent(t, conn)
	assert.Equal(t, OpReady, ready.Op)
	assert.Positive(t, ready.Seq)

	require.NoError(t, conn.WriteJSON(Event{Op: OpHeartbeat}))
	ack := readEvent(t, conn)
	assert.Equal(t, OpHeartbeatAck, ack.Op)
	assert.Greater(t, ack.Seq, ready.Seq)
}

func TestHub_SoilStreamFollowsView(t *testing.T) {
	h := newHarness(t, map[string]*models.Session{
		"s1": {ID: "s1", View: models.ViewDashboard},
	})
	conn := h.dial(t, "s1")

	readUntil(t, conn, OpReady)
	first := readUntil(t, conn, OpSoilUpdate)
	assert.Equal(t, map[string]any{
		"moisture": 65.0, "pH": 6.5, "nitrogen": 40.0, "phosphorus": 30.0, "potassium": 35.0,
	}, first.Data, "a fresh stream starts from the baseline")

	clients := h.hub.sessionClients("s1")
	require.Len(t, clients, 1)
	assert.True(t, clients[0].streaming())

	h.hub.ViewChanged("s1", models.ViewWeather)
	assert.False(t, clients[0].streaming())
	readUntil(t, conn, OpViewChanged)

	h.hub.ViewChanged("s1", models.ViewDashboard)
	assert.True(t, clients[0].streaming())
}

func TestHandler_StreamStartUsesViewAtRegister(t *testing.T) {
	t.Run("left dashboard before register", func(t *testing.T) {
		h := newHarnessWith(t, &fakeSessions{
			sessions: map[string]*models.Session{"s1": {ID: "s1", View: models.ViewDashboard}},
			afterGet: func(s *models.Session) { s.View = models.ViewHome },
		})
		conn := h.dial(t, "s1")
		readUntil(t, conn, OpReady)

		clients := h.hub.sessionClients("s1")
		require.Len(t, clients, 1)
		assert.Never(t, clients[0].streaming, 100*time.Millisecond, 10*time.Millisecond)
	})

	t.Run("entered dashboard before register", func(t *testing.T) {
		h := newHarnessWith(t, &fakeSessions{
			sessions: map[string]*models.Session{"s1": {ID: "s1", View: models.ViewHome}},
			afterGet: func(s *models.Session) { s.View = models.ViewDashboard },
		})
		conn := h.dial(t, "s1")
		readUntil(t, conn, OpReady)
		readUntil(t, conn, OpSoilUpdate)
	})
}

func TestHub_DisconnectStopsStream(t *testing.T) {
	h := newHarness(t, map[string]*models.Session{
		"s1": {ID: "s1", View: models.ViewDashboard},
	})
	conn := h.dial(t, "s1")
	readUntil(t, conn, OpSoilUpdate)

	clients := h.hub.sessionClients("s1")
	require.Len(t, clients, 1)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return h.hub.ConnectionCount() == 0 && !clients[0].streaming()
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_SelectViewOp(t *testing.T) {
	h := newHarness(t, map[string]*models.Session{
		"s1": {ID: "s1", View: models.ViewHome},
	})

	selected := make(chan models.View, 1)
	h.hub.OnSelectView(func(sessionID string, view models.View) error {
		if view == models.ViewAccount {
			return pkg.NewNotice(pkg.ErrConflict, "auth.inProgress")
		}
		selected <- view
		h.hub.ViewChanged(sessionID, view)
		return nil
	})

	conn := h.dial(t, "s1")
	readUntil(t, conn, OpReady)

	require.NoError(t, conn.WriteJSON(Event{Op: OpSelectView, Data: SelectViewData{View: "Dashboard"}}))
	assert.Equal(t, models.ViewDashboard, <-selected)
	changed := readUntil(t, conn, OpViewChanged)
	assert.Equal(t, map[string]any{"view": "dashboard"}, changed.Data)

	require.NoError(t, conn.WriteJSON(Event{Op: OpSelectView, Data: SelectViewData{View: "barn"}}))
	ev := readUntil(t, conn, OpError)
	assert.Equal(t, map[string]any{"op": OpSelectView, "key": "view.unknown"}, ev.Data)

	require.NoError(t, conn.WriteJSON(Event{Op: OpSelectView, Data: SelectViewData{View: "account"}}))
	ev = readUntil(t, conn, OpError)
	assert.Equal(t, map[string]any{"op": OpSelectView, "key": "auth.inProgress"}, ev.Data)
}

func TestHub_PublishToSessionIsScoped(t *testing.T) {
	h := newHarness(t, map[string]*models.Session{
		"a": {ID: "a", View: models.ViewHome},
		"b": {ID: "b", View: models.ViewHome},
	})
	connA := h.dial(t, "a")
	connB := h.dial(t, "b")
	readUntil(t, connA, OpReady)
	readUntil(t, connB, OpReady)

	h.hub.PublishToSession("a", Event{Op: OpSessionUpdate})
	h.hub.BroadcastToAll(Event{Op: OpForumPostCreate})

	assert.Equal(t, OpSessionUpdate, readEvent(t, connA).Op)
	assert.Equal(t, OpForumPostCreate, readEvent(t, connA).Op)
	assert.Equal(t, OpForumPostCreate, readEvent(t, connB).Op, "b must not see a's session event")
}

func TestHub_ShutdownRefusesNewClients(t *testing.T) {
	hub := NewHub(soilsim.New(time.Hour), zap.NewNop())
	hub.Shutdown()

	c := &Client{sessionID: "s", send: make(chan []byte, 1)}
	assert.False(t, hub.Register(c))
	assert.Zero(t, hub.ConnectionCount())

	// Unregistering an unknown client is a no-op.
	hub.Unregister(c)
}

func TestHub_EncodeFailureIsDropped(t *testing.T) {
	hub := NewHub(soilsim.New(time.Hour), zap.NewNop())
	defer hub.Shutdown()

	_, ok := hub.encode(Event{Op: "bad", Data: make(chan int)})
	assert.False(t, ok)
}
