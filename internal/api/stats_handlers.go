package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerStatsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "gatewayStats",
		Method:      http.MethodGet,
		Path:        "/internal/stats",
		Summary:     "Gateway statistics",
		Description: "Returns live connection counts and process information",
		Tags:        []string{"Ops"},
	}, s.handleStats)
}

// StatsResponse contains gateway statistics in API responses.
type StatsResponse struct {
	Connections              int    `json:"connections" doc:"Number of open SSE connections"`
	UptimeSeconds            int64  `json:"uptime_seconds" doc:"Seconds since the gateway started"`
	InstanceID               string `json:"instance_id" doc:"Unique identifier of this gateway process"`
	HeartbeatIntervalSeconds int    `json:"heartbeat_interval_seconds" doc:"Configured heartbeat period"`
}

// StatsOutput wraps the stats response for Huma.
type StatsOutput struct {
	Body StatsResponse
}

func (s *Server) handleStats(_ context.Context, _ *struct{}) (*StatsOutput, error) {
	return &StatsOutput{
		Body: StatsResponse{
			Connections:              s.manager.Len(),
			UptimeSeconds:            int64(time.Since(s.startedAt).Seconds()),
			InstanceID:               s.instanceID,
			HeartbeatIntervalSeconds: int(s.manager.HeartbeatInterval().Seconds()),
		},
	}, nil
}
