package ws

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/edithfert/fertpro/models"
)

// SessionResolver is the slice of the session service the socket needs.
// Declaring it here keeps ws free of a services import, since services
// already import ws for EventPublisher.
//
// WithView must run fn while no view change for the session can commit;
// the hub's ViewChanged calls are made under the same guard.
type SessionResolver interface {
	Validate(token string) (*models.SessionClaims, error)
	Get(ctx context.Context, id string) (*models.Session, error)
	WithView(ctx context.Context, id string, fn func(models.View)) error
}

// Handler upgrades /ws requests.
type Handler struct {
	hub      *Hub
	sessions SessionResolver
	upgrader websocket.Upgrader
}

// NewHandler creates the upgrade handler. Browsers from allowedOrigins, or
// from the serving host itself, may connect.
func NewHandler(hub *Hub, sessions SessionResolver, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}

	return &Handler{
		hub:      hub,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || allowed[origin] {
					return true
				}
				u, err := url.Parse(origin)
				return err == nil && strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

// HandleConnection authenticates the session, upgrades, sends ready and then
// pumps until the connection closes.
//
// Browsers cannot set headers on a WebSocket handshake, so the token comes
// from ?token= or from the session cookie.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if cookie, err := r.Cookie(models.SessionCookieName); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.sessions.Validate(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	session, err := h.sessions.Get(r.Context(), claims.SessionID)
	if err != nil {
		http.Error(w, "session expired", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.logger.Info("upgrade failed", zap.String("session", claims.SessionID), zap.Error(err))
		return
	}

	client := newClient(h.hub, conn, session.ID)
	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	go client.WritePump()

	h.hub.sendTo(client, Event{
		Op: OpReady,
		Data: ReadyData{
			Session:         *session,
			IntervalSeconds: h.hub.sim.Interval().Seconds(),
		},
	})

	// The view may have moved since Get. Deciding under the session guard
	// orders this start against any concurrent ViewChanged.
	err = h.sessions.WithView(r.Context(), session.ID, func(view models.View) {
		if view == models.ViewDashboard {
			client.startSoilStream()
		}
	})
	if err != nil {
		h.hub.logger.Debug("session gone after register", zap.String("session", session.ID), zap.Error(err))
	}

	client.ReadPump()
}
