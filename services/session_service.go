package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/edithfert/fertpro/models"
	"github.com/edithfert/fertpro/pkg"
	"github.com/edithfert/fertpro/ws"
)

// tokenLifetime bounds how long a session token is accepted. The session
// itself usually expires much sooner through the store's idle TTL.
const tokenLifetime = 7 * 24 * time.Hour

const tokenIssuer = "fertpro"

// SessionService starts sessions and switches their view.
//
// Start: creates a session on the home view and signs a token naming it.
// Validate: checks a token's signature and expiry.
// Get: returns a snapshot of a live session.
// SelectView: switches the view; idempotent.
// WithView: runs a callback against the current view, serialized with SelectView.
type SessionService interface {
	Start(ctx context.Context, lang string) (*models.Session, string, error)
	Validate(token string) (*models.SessionClaims, error)
	Get(ctx context.Context, id string) (*models.Session, error)
	SelectView(ctx context.Context, id string, view models.View) (*models.Session, error)
	WithView(ctx context.Context, id string, fn func(models.View)) error
}

type sessionService struct {
	store  *SessionStore
	secret []byte
	hub    ws.EventPublisher
	logger *zap.Logger
}

// NewSessionService creates the service. secret signs session tokens.
func NewSessionService(store *SessionStore, secret string, hub ws.EventPublisher, logger *zap.Logger) SessionService {
	return &sessionService{
		store:  store,
		secret: []byte(secret),
		hub:    hub,
		logger: logger,
	}
}

func (s *sessionService) Start(_ context.Context, lang string) (*models.Session, string, error) {
	session := s.store.Create(lang)

	now := time.Now()
	claims := &models.SessionClaims{
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign session token: %w", err)
	}

	s.logger.Debug("session started", zap.String("session", session.ID), zap.String("lang", lang))
	return &session, token, nil
}

func (s *sessionService) Validate(tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, pkg.WrapNotice(pkg.ErrUnauthorized, "session.invalid", err)
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, pkg.NewNotice(pkg.ErrUnauthorized, "session.invalid")
	}
	return claims, nil
}

func (s *sessionService) Get(_ context.Context, id string) (*models.Session, error) {
	session, err := s.store.Snapshot(id)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// SelectView switches the view. Pending operations owned by the previous
// view are cancelled, and connected sockets are told so the dashboard
// stream starts or stops. Selecting the current view again changes nothing
// and publishes nothing.
func (s *sessionService) SelectView(_ context.Context, id string, view models.View) (*models.Session, error) {
	if !view.Valid() {
		return nil, pkg.NewNotice(pkg.ErrBadRequest, models.ErrUnknownView.Error())
	}

	// ViewChanged runs inside the session's critical section so two racing
	// selections start and stop the soil stream in commit order.
	session, changed, err := s.store.SwitchView(id, view, func(models.Session) {
		s.hub.ViewChanged(id, view)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Debug("view selected", zap.String("session", id), zap.String("view", string(view)))
	}
	return &session, nil
}

// WithView runs fn with the session's current view while no view change can
// commit. The socket handler uses it to start the soil stream for a freshly
// registered client.
func (s *sessionService) WithView(_ context.Context, id string, fn func(models.View)) error {
	return s.store.WithView(id, fn)
}

// IsSessionGone reports whether err means the session no longer exists,
// as opposed to a malformed token.
func IsSessionGone(err error) bool {
	return errors.Is(err, pkg.ErrNotFound)
}
