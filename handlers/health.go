package handlers

import (
	"net/http"

	"github.com/edithfert/fertpro/pkg"
)

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
}

// ConnectionCounter reports the number of open sockets.
type ConnectionCounter interface {
	ConnectionCount() int
}

// HealthHandler answers liveness probes.
type HealthHandler struct {
	conns ConnectionCounter
}

// NewHealthHandler, conns may be nil.
func NewHealthHandler(conns ConnectionCounter) *HealthHandler {
	return &HealthHandler{conns: conns}
}

// Health godoc
// GET /api/health
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if h.conns != nil {
		resp.Connections = h.conns.ConnectionCount()
	}
	pkg.JSON(w, http.StatusOK, resp)
}
