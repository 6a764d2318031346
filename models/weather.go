package models

// CurrentWeather holds the headline numbers of the weather view.
type CurrentWeather struct {
	Temp      int `json:"temp"`
	Humidity  int `json:"humidity"`
	WindSpeed int `json:"wind_speed"`
}

// ForecastDay is one column of the five-day forecast.
type ForecastDay struct {
	Day  string `json:"day"`
	Temp int    `json:"temp"`
	Icon string `json:"icon"`
}

// WeatherReport is the whole weather view.
type WeatherReport struct {
	Current  CurrentWeather `json:"current"`
	Forecast []ForecastDay  `json:"forecast"`
	Insight  string         `json:"insight"`
}
