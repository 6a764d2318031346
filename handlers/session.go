package handlers

import (
	"net/http"
	"time"

	"github.com/edithfert/fertpro/models"
	"github.com/edithfert/fertpro/pkg"
	"github.com/edithfert/fertpro/services"
)

// StartSessionResponse is the body of POST /api/session.
type StartSessionResponse struct {
	Token   string         `json:"token"`
	Session models.Session `json:"session"`
}

// SessionHandler serves the session and navigation endpoints.
type SessionHandler struct {
	sessions services.SessionService
	ttl      time.Duration
}

// NewSessionHandler creates the handler. ttl sets the cookie lifetime.
func NewSessionHandler(sessions services.SessionService, ttl time.Duration) *SessionHandler {
	return &SessionHandler{sessions: sessions, ttl: ttl}
}

// Start godoc
// POST /api/session
//
// The token is returned in the body for API clients and set as a cookie for
// browsers.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	session, token, err := h.sessions.Start(r.Context(), RequestLanguage(r))
	if err != nil {
		pkg.LocalizedError(w, localizerFrom(r), err)
		return
	}

	SetSessionCookie(w, r, token, h.ttl)
	pkg.JSON(w, http.StatusCreated, StartSessionResponse{Token: token, Session: *session})
}

// Get godoc
// GET /api/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	pkg.JSON(w, http.StatusOK, session)
}

// SelectView godoc
// PUT /api/session/view
func (h *SessionHandler) SelectView(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	loc := localizerFrom(r)

	var req models.SelectViewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := models.ParseView(req.View)
	if err != nil {
		pkg.LocalizedError(w, loc, pkg.WrapNotice(pkg.ErrBadRequest, "view.unknown", err))
		return
	}

	updated, err := h.sessions.SelectView(r.Context(), session.ID, view)
	if err != nil {
		pkg.LocalizedError(w, loc, err)
		return
	}
	pkg.JSON(w, http.StatusOK, updated)
}

// Views godoc
// GET /api/views
func (h *SessionHandler) Views(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	pkg.JSON(w, http.StatusOK, models.Navigation(session.View, session.LoggedIn))
}
