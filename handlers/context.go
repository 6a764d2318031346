// Package handlers holds the HTTP handlers.
//
// Handlers stay thin: decode the request, call a service, write the
// response. Business rules live in services.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/edithfert/fertpro/models"
	"github.com/edithfert/fertpro/pkg"
	"github.com/edithfert/fertpro/pkg/i18n"
)

type contextKey string

// Keys the session middleware stores request state under.
const (
	SessionContextKey   contextKey = "session"
	LocalizerContextKey contextKey = "localizer"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

var errMissingSession = errors.New("no session in request context")

// sessionFrom returns the session the middleware resolved for r.
func sessionFrom(r *http.Request) (*models.Session, bool) {
	s, ok := r.Context().Value(SessionContextKey).(*models.Session)
	return s, ok && s != nil
}

// localizerFrom returns the session's localizer, falling back to the
// request's Accept-Language.
func localizerFrom(r *http.Request) *i18n.Localizer {
	if loc, ok := r.Context().Value(LocalizerContextKey).(*i18n.Localizer); ok && loc != nil {
		return loc
	}
	return i18n.NewLocalizer(RequestLanguage(r))
}

// RequestLanguage prefers an explicit ?lang= over Accept-Language.
func RequestLanguage(r *http.Request) string {
	if lang := strings.ToLower(r.URL.Query().Get("lang")); i18n.IsSupported(lang) {
		return lang
	}
	return i18n.DetectLanguage(r.Header.Get("Accept-Language"))
}

// SetSessionCookie stores token in the session cookie.
func SetSessionCookie(w http.ResponseWriter, r *http.Request, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     models.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// decodeJSON reads a JSON body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		pkg.LocalizedError(w, localizerFrom(r), pkg.WrapNotice(pkg.ErrBadRequest, "error.badRequest", err))
		return false
	}
	return true
}

// requireSession fetches the session or writes a 401.
func requireSession(w http.ResponseWriter, r *http.Request) (*models.Session, bool) {
	s, ok := sessionFrom(r)
	if !ok {
		pkg.LocalizedError(w, localizerFrom(r), pkg.WrapNotice(pkg.ErrUnauthorized, "session.required", errMissingSession))
		return nil, false
	}
	return s, true
}
