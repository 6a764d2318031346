package main

import (
	"go.uber.org/zap"

	"github.com/edithfert/fertpro/config"
	"github.com/edithfert/fertpro/database"
	"github.com/edithfert/fertpro/pkg/soilsim"
	"github.com/edithfert/fertpro/services"
	"github.com/edithfert/fertpro/ws"
)

// Services holds every service instance.
type Services struct {
	Session        services.SessionService
	Recommendation services.RecommendationService
	Auth           services.AuthService
	Forum          services.ForumService
	Content        services.ContentService
	Soil           services.SoilService
	Weather        services.WeatherService
}

// initServices builds the service layer. Services publish to the hub
// through ws.EventPublisher only.
func initServices(
	cfg *config.Config,
	db *database.DB,
	repos *Repositories,
	store *services.SessionStore,
	sim *soilsim.Simulator,
	hub ws.EventPublisher,
	logger *zap.Logger,
) *Services {
	content := services.NewContentService()

	return &Services{
		Session: services.NewSessionService(store, cfg.Session.Secret, hub, logger.Named("session")),
		Recommendation: services.NewRecommendationService(
			store,
			services.NewTemplateAdvisor(),
			content,
			cfg.Simulate.RecommendDelay(),
			hub,
			logger.Named("recommend"),
		),
		Auth:    services.NewAuthService(store, cfg.Simulate.LoginDelay(), hub, logger.Named("auth")),
		Forum:   services.NewForumService(db.Conn, repos.Forum, store, hub, logger.Named("forum")),
		Content: content,
		Soil:    services.NewSoilService(sim, content),
		Weather: services.NewWeatherService(),
	}
}
