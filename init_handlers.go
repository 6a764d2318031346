package main

import (
	"go.uber.org/zap"

	"github.com/edithfert/fertpro/config"
	"github.com/edithfert/fertpro/handlers"
	"github.com/edithfert/fertpro/pkg/ratelimit"
	"github.com/edithfert/fertpro/web"
	"github.com/edithfert/fertpro/ws"
)

// Handlers holds every HTTP handler.
type Handlers struct {
	Health         *handlers.HealthHandler
	Session        *handlers.SessionHandler
	Content        *handlers.ContentHandler
	Recommendation *handlers.RecommendationHandler
	Forum          *handlers.ForumHandler
	Auth           *handlers.AuthHandler
	Pages          *handlers.PageHandler
	WS             *ws.Handler
}

func initHandlers(
	cfg *config.Config,
	svcs *Services,
	hub *ws.Hub,
	limiter *ratelimit.AuthLimiter,
	renderer *web.Renderer,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		Health:         handlers.NewHealthHandler(hub),
		Session:        handlers.NewSessionHandler(svcs.Session, cfg.Session.TTL()),
		Content:        handlers.NewContentHandler(svcs.Content, svcs.Soil, svcs.Weather),
		Recommendation: handlers.NewRecommendationHandler(svcs.Recommendation),
		Forum:          handlers.NewForumHandler(svcs.Forum),
		Auth:           handlers.NewAuthHandler(svcs.Auth, limiter),
		Pages: handlers.NewPageHandler(handlers.PageServices{
			Sessions:        svcs.Session,
			Content:         svcs.Content,
			Soil:            svcs.Soil,
			Weather:         svcs.Weather,
			Recommendations: svcs.Recommendation,
			Forum:           svcs.Forum,
			Auth:            svcs.Auth,
		}, renderer, limiter, logger.Named("pages")),
		WS: ws.NewHandler(hub, svcs.Session, cfg.Server.CORSOrigins),
	}
}
