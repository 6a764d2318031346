// Package middleware holds the layers a request passes through before it
// reaches a handler.
//
// A middleware is func(next http.Handler) http.Handler: it does its work and
// then either calls next or writes the response itself.
package middleware

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edithfert/fertpro/handlers"
	"github.com/edithfert/fertpro/models"
	"github.com/edithfert/fertpro/pkg"
	"github.com/edithfert/fertpro/pkg/i18n"
	"github.com/edithfert/fertpro/services"
)

// SessionMiddleware resolves the session of a request.
type SessionMiddleware struct {
	sessions services.SessionService
	ttl      time.Duration
	logger   *zap.Logger
}

// NewSessionMiddleware creates the middleware. ttl is the session lifetime
// used for the cookie's Max-Age.
func NewSessionMiddleware(sessions services.SessionService, ttl time.Duration, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{
		sessions: sessions,
		ttl:      ttl,
		logger:   logger,
	}
}

// Require rejects requests without a live session with 401.
//
// The token is read from "Authorization: Bearer <token>" and, failing that,
// from the session cookie the HTML pages use.
func (m *SessionMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loc := i18n.NewLocalizer(handlers.RequestLanguage(r))

		token, ok := tokenFrom(r)
		if !ok {
			pkg.LocalizedError(w, loc, pkg.NewNotice(pkg.ErrUnauthorized, "session.required"))
			return
		}

		session, err := m.resolve(r.Context(), token)
		if err != nil {
			pkg.LocalizedError(w, loc, pkg.WrapNotice(pkg.ErrUnauthorized, "session.invalid", err))
			return
		}

		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), session)))
	})
}

// Ensure is Require for the HTML pages: instead of failing, it starts a new
// session and sets the cookie.
func (m *SessionMiddleware) Ensure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := tokenFrom(r); ok {
			session, err := m.resolve(r.Context(), token)
			if err == nil {
				next.ServeHTTP(w, r.WithContext(withSession(r.Context(), session)))
				return
			}
			if services.IsSessionGone(err) {
				m.logger.Debug("session expired, starting a new one")
			}
		}

		session, token, err := m.sessions.Start(r.Context(), handlers.RequestLanguage(r))
		if err != nil {
			m.logger.Error("failed to start session", zap.Error(err))
			http.Error(w, "failed to start session", http.StatusInternalServerError)
			return
		}

		handlers.SetSessionCookie(w, r, token, m.ttl)
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), session)))
	})
}

func (m *SessionMiddleware) resolve(ctx context.Context, token string) (*models.Session, error) {
	claims, err := m.sessions.Validate(token)
	if err != nil {
		return nil, err
	}
	return m.sessions.Get(ctx, claims.SessionID)
}

func withSession(ctx context.Context, session *models.Session) context.Context {
	ctx = context.WithValue(ctx, handlers.SessionContextKey, session)
	return context.WithValue(ctx, handlers.LocalizerContextKey, i18n.NewLocalizer(session.Language))
}

func tokenFrom(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		token, found := strings.CutPrefix(h, "Bearer ")
		return strings.TrimSpace(token), found && strings.TrimSpace(token) != ""
	}
	if c, err := r.Cookie(models.SessionCookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

// RequestLogger logs every request at debug level once it completes.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("took", time.Since(start)),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// Hijack hands the connection to the WebSocket upgrader.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	s.status = http.StatusSwitchingProtocols
	return http.NewResponseController(s.ResponseWriter).Hijack()
}

func (s *statusRecorder) Flush() {
	_ = http.NewResponseController(s.ResponseWriter).Flush()
}
