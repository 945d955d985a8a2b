package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/streamgateapp/streamgate/internal/http/response"
	"github.com/streamgateapp/streamgate/internal/sse"
)

// sendEvent is the optional event of a send request. Data is a pointer so
// that an explicit empty string passes required-validation while a missing
// field fails it.
type sendEvent struct {
	Name string  `json:"name"`
	Data *string `json:"data" validate:"required"`
}

// sendRequest is the body of POST /internal/send. Unknown fields are
// ignored; wrong field types fail the decode and answer 400.
type sendRequest struct {
	Token string     `json:"token" validate:"required"`
	Event *sendEvent `json:"event"`
	Close bool       `json:"close"`
}

// handleSend delivers an event and/or a close to an open connection.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if !s.callbacks.Configured() {
		response.Unavailable(w, "callback URL not configured", s.logger)
		return
	}

	var req sendRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid request body: "+err.Error(), s.logger)
		return
	}

	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	var event *sse.Event
	if req.Event != nil {
		event = &sse.Event{
			Name: req.Event.Name,
			Data: *req.Event.Data,
		}
	}

	if err := s.manager.Send(req.Token, event, req.Close); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.OK(w, s.logger)
}
