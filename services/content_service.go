package services

import (
	"github.com/edithfert/fertpro/models"
	"github.com/edithfert/fertpro/pkg/soilsim"
)

// ContentService serves the static texts of the app.
type ContentService interface {
	Home() models.HomeContent
	DashboardInsight() string
	HistoryTrend() string
}

type contentService struct{}

// NewContentService returns the built-in content.
func NewContentService() ContentService {
	return contentService{}
}

func (contentService) Home() models.HomeContent {
	return models.HomeContent{
		Title: "Welcome to Edith Fert Pro",
		Intro: "Edith Fert Pro is your AI-powered assistant for precision agriculture. " +
			"Our smart system helps you optimize fertilizer use, increase crop yields, and promote sustainable farming practices.",
		Features: []string{
			"Get AI-driven fertilizer recommendations",
			"Monitor real-time soil and weather data",
			"Connect with a community of innovative farmers",
			"Access personalized climate-smart farming advice",
			"Track your farm's performance over time",
		},
	}
}

func (contentService) DashboardInsight() string {
	return "Based on current soil conditions, consider increasing potassium levels slightly. " +
		"This may improve overall plant health and yield potential."
}

func (contentService) HistoryTrend() string {
	return "Based on your history, we've noticed a trend towards increased nitrogen needs. " +
		"This could be due to changing soil conditions or crop rotation patterns. " +
		"Consider soil testing to confirm and adjust your fertilization strategy accordingly."
}

// SoilService describes the dashboard's simulated sensors. The readings
// themselves are streamed per connection by the ws hub.
type SoilService interface {
	Overview() models.SoilOverview
}

type soilService struct {
	sim     *soilsim.Simulator
	content ContentService
}

// NewSoilService creates the service around the simulator the hub uses.
func NewSoilService(sim *soilsim.Simulator, content ContentService) SoilService {
	return &soilService{sim: sim, content: content}
}

func (s *soilService) Overview() models.SoilOverview {
	start := s.sim.Start()
	return models.SoilOverview{
		Baseline:        start,
		Metrics:         start.Metrics(),
		IntervalSeconds: s.sim.Interval().Seconds(),
		Insight:         s.content.DashboardInsight(),
	}
}
