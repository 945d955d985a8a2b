package api

import (
	"net/http"

	"github.com/streamgateapp/streamgate/internal/http/response"
)

// healthBody is the /healthz response shape.
type healthBody struct {
	Status   string `json:"status"`
	Instance string `json:"instance"`
}

// handleHealthz reports liveness. Always 200: a process that can answer is
// alive regardless of configuration.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, healthBody{
		Status:   "ok",
		Instance: s.instanceID,
	}, s.logger)
}

// handleReadyz reports readiness: the gateway can serve streams only once a
// controller callback URL is configured.
func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	if !s.cfg.Configured() {
		response.Unavailable(w, "callback URL not configured", s.logger)
		return
	}
	response.OK(w, s.logger)
}
