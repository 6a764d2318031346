package services

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/edithfert/fertpro/models"
	"github.com/edithfert/fertpro/ws"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recordingHub captures everything services publish.
type recordingHub struct {
	mu          sync.Mutex
	broadcasts  []ws.Event
	published   map[string][]ws.Event
	viewChanges []models.View
}

func newRecordingHub() *recordingHub {
	return &recordingHub{published: make(map[string][]ws.Event)}
}

func (h *recordingHub) BroadcastToAll(event ws.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcasts = append(h.broadcasts, event)
}

func (h *recordingHub) PublishToSession(sessionID string, event ws.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.published[sessionID] = append(h.published[sessionID], event)
}

func (h *recordingHub) ViewChanged(_ string, view models.View) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.viewChanges = append(h.viewChanges, view)
}

func (h *recordingHub) ops(sessionID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var ops []string
	for _, ev := range h.published[sessionID] {
		ops = append(ops, ev.Op)
	}
	return ops
}

func (h *recordingHub) views() []models.View {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]models.View(nil), h.viewChanges...)
}

func newTestStore(t *testing.T, ttl time.Duration) *SessionStore {
	t.Helper()
	store := NewSessionStore(ttl)
	t.Cleanup(store.Close)
	return store
}
