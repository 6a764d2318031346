package handlers

import (
	"net/http"

	"github.com/edithfert/fertpro/pkg"
	"github.com/edithfert/fertpro/services"
)

// ContentHandler serves the read-only sections: home, soil and weather.
type ContentHandler struct {
	content services.ContentService
	soil    services.SoilService
	weather services.WeatherService
}

// NewContentHandler, constructor.
func NewContentHandler(content services.ContentService, soil services.SoilService, weather services.WeatherService) *ContentHandler {
	return &ContentHandler{content: content, soil: soil, weather: weather}
}

// Home godoc
// GET /api/home
func (h *ContentHandler) Home(w http.ResponseWriter, _ *http.Request) {
	pkg.JSON(w, http.StatusOK, h.content.Home())
}

// Soil godoc
// GET /api/soil
func (h *ContentHandler) Soil(w http.ResponseWriter, _ *http.Request) {
	pkg.JSON(w, http.StatusOK, h.soil.Overview())
}

// Weather godoc
// GET /api/weather
func (h *ContentHandler) Weather(w http.ResponseWriter, _ *http.Request) {
	pkg.JSON(w, http.StatusOK, h.weather.Report())
}
