package handlers

import (
	"net/http"

	"github.com/edithfert/fertpro/models"
	"github.com/edithfert/fertpro/pkg"
	"github.com/edithfert/fertpro/services"
)

// RecommendationHandler serves crops, recommendations and history.
type RecommendationHandler struct {
	recommendations services.RecommendationService
}

// NewRecommendationHandler, constructor.
func NewRecommendationHandler(recommendations services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recommendations: recommendations}
}

// Crops godoc
// GET /api/crops
func (h *RecommendationHandler) Crops(w http.ResponseWriter, _ *http.Request) {
	pkg.JSON(w, http.StatusOK, h.recommendations.Crops())
}

// Recommend godoc
// POST /api/recommendations
//
// Blocks for the simulated processing delay. A client that disconnects
// meanwhile cancels the run.
func (h *RecommendationHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	loc := localizerFrom(r)

	var req models.RecommendRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.recommendations.Recommend(r.Context(), session.ID, req.Crop)
	if err != nil {
		pkg.LocalizedError(w, loc, err)
		return
	}
	pkg.JSONWithNotice(w, http.StatusOK, result, loc.T("recommend.success"))
}

// History godoc
// GET /api/history
func (h *RecommendationHandler) History(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	history, err := h.recommendations.History(r.Context(), session.ID)
	if err != nil {
		pkg.LocalizedError(w, localizerFrom(r), err)
		return
	}
	pkg.JSON(w, http.StatusOK, history)
}
