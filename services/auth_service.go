package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/edithfert/fertpro/models"
	"github.com/edithfert/fertpro/pkg"
	"github.com/edithfert/fertpro/ws"
)

// AuthService simulates login and sign-up.
//
// There is no account store: any non-empty email and password succeed
// after the simulated delay. Only the session's logged-in flag changes.
//
// Submit: validates and, after the delay, flips the flag on.
// Logout: flips the flag off.
// Account: the placeholder profile, for logged-in sessions only.
type AuthService interface {
	Submit(ctx context.Context, sessionID string, req *models.AuthRequest) (*models.AuthResult, error)
	Logout(ctx context.Context, sessionID string) (*models.Session, error)
	Account(ctx context.Context, sessionID string) (*models.AccountProfile, error)
}

type authService struct {
	store  *SessionStore
	delay  time.Duration
	hub    ws.EventPublisher
	logger *zap.Logger
}

// NewAuthService creates the service. delay is the simulated latency.
func NewAuthService(store *SessionStore, delay time.Duration, hub ws.EventPublisher, logger *zap.Logger) AuthService {
	return &authService{
		store:  store,
		delay:  delay,
		hub:    hub,
		logger: logger,
	}
}

func (s *authService) Submit(ctx context.Context, sessionID string, req *models.AuthRequest) (*models.AuthResult, error) {
	if err := req.Validate(); err != nil {
		return nil, pkg.WrapNotice(pkg.ErrBadRequest, err.Error(), err)
	}

	opCtx, done, err := s.store.BeginOp(ctx, sessionID, OpLogin)
	if err != nil {
		return nil, err
	}
	defer done()

	if err := wait(opCtx, s.delay); err != nil {
		return nil, pkg.WrapNotice(pkg.ErrCanceled, "auth.canceled", err)
	}

	cancelled := false
	session, err := s.store.Mutate(sessionID, func(sess *models.Session) {
		if opCtx.Err() != nil {
			cancelled = true
			return
		}
		sess.LoggedIn = true
	})
	if err != nil {
		return nil, err
	}
	if cancelled {
		return nil, pkg.WrapNotice(pkg.ErrCanceled, "auth.canceled", opCtx.Err())
	}

	s.hub.PublishToSession(sessionID, ws.Event{Op: ws.OpSessionUpdate, Data: session})
	s.logger.Info("session logged in", zap.String("session", sessionID), zap.String("mode", string(req.Mode)))

	key := "auth.loggedIn"
	if req.Mode == models.AuthModeSignup {
		key = "auth.signedUp"
	}
	return &models.AuthResult{NoticeKey: key, Session: session}, nil
}

func (s *authService) Logout(_ context.Context, sessionID string) (*models.Session, error) {
	session, err := s.store.Mutate(sessionID, func(sess *models.Session) {
		sess.LoggedIn = false
	})
	if err != nil {
		return nil, err
	}

	s.hub.PublishToSession(sessionID, ws.Event{Op: ws.OpSessionUpdate, Data: session})
	return &session, nil
}

func (s *authService) Account(_ context.Context, sessionID string) (*models.AccountProfile, error) {
	if err := requireLogin(s.store, sessionID); err != nil {
		return nil, err
	}
	profile := models.DemoAccount()
	return &profile, nil
}

// requireLogin fails with auth.loginRequired unless the session is logged in.
func requireLogin(store *SessionStore, sessionID string) error {
	session, err := store.Snapshot(sessionID)
	if err != nil {
		return err
	}
	if !session.LoggedIn {
		return pkg.NewNotice(pkg.ErrUnauthorized, "auth.loginRequired")
	}
	return nil
}
