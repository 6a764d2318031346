package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/edithfert/fertpro/models"
	"github.com/edithfert/fertpro/ws"
)

// initCallbacks connects hub events to the services. The hub lives in ws
// and must not import services, so main closes the loop.
func initCallbacks(hub *ws.Hub, svcs *Services, logger *zap.Logger) {
	hub.OnSelectView(func(sessionID string, view models.View) error {
		if _, err := svcs.Session.SelectView(context.Background(), sessionID, view); err != nil {
			logger.Debug("select_view over socket failed",
				zap.String("session", sessionID),
				zap.String("view", string(view)),
				zap.Error(err),
			)
			return err
		}
		return nil
	})
}
