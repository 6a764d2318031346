package services

import "github.com/edithfert/fertpro/models"

// WeatherService returns the weather view. The data is fixed; there is no
// weather provider behind it.
type WeatherService interface {
	Report() models.WeatherReport
}

type weatherService struct{}

// NewWeatherService returns the static weather service.
func NewWeatherService() WeatherService {
	return weatherService{}
}

func (weatherService) Report() models.WeatherReport {
	return models.WeatherReport{
		Current: models.CurrentWeather{Temp: 22, Humidity: 60, WindSpeed: 5},
		Forecast: []models.ForecastDay{
			{Day: "Mon", Temp: 23, Icon: "☀️"},
			{Day: "Tue", Temp: 25, Icon: "🌤️"},
			{Day: "Wed", Temp: 21, Icon: "🌧️"},
			{Day: "Thu", Temp: 20, Icon: "⛈️"},
			{Day: "Fri", Temp: 22, Icon: "🌤️"},
		},
		Insight: "Based on the forecast, Wednesday's rain may provide optimal conditions for fertilizer application. " +
			"Consider scheduling your next application then for maximum efficiency.",
	}
}
