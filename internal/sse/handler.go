package sse

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/streamgateapp/streamgate/internal/callback"
	"github.com/streamgateapp/streamgate/internal/http/response"
)

// Handler terminates client streams at GET /sse/*.
//
// The connect flow is a small state machine: mint a token, snapshot the
// request, arm the disconnect listener, ask the controller, and only then
// decide whether the stream opens. The listener is armed before the
// callback goes out so a client that aborts mid-callback flips the
// record's disconnected flag and the open is abandoned without the
// controller ever learning the connection "existed".
type Handler struct {
	manager   *Manager
	callbacks *callback.Client
	logger    *slog.Logger
}

// NewHandler creates the connect handler.
func NewHandler(manager *Manager, callbacks *callback.Client, logger *slog.Logger) *Handler {
	return &Handler{
		manager:   manager,
		callbacks: callbacks,
		logger:    logger,
	}
}

// ServeHTTP handles one SSE connection for its entire lifetime. It returns
// only when the stream ends, which releases the underlying response.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// No controller, no service.
	if !h.callbacks.Configured() {
		response.Unavailable(w, "callback URL not configured", h.logger)
		return
	}

	// Client already gone before we did any work.
	if r.Context().Err() != nil {
		return
	}

	token := uuid.NewString()
	info := callback.Snapshot(r)
	conn := NewConnection(token, info, NewHTTPStream(w))
	defer conn.endStream()

	// Arm the disconnect listener before the connect callback. It exits
	// when the stream ends normally, so it never outlives the connection.
	go func() {
		select {
		case <-r.Context().Done():
			h.manager.HandleClientClose(conn)
		case <-conn.Closed():
		}
	}()

	// The callback must survive a client abort: scenario-wise, the
	// controller's answer still arrives and is dispatched against the
	// disconnected flag. Only the callback's own deadline bounds it.
	result := h.callbacks.Connect(context.WithoutCancel(r.Context()), token, info)

	switch {
	case result.Success:
		// Fall through to open.
	case result.ErrorType == callback.ErrorTimeout:
		response.GatewayTimeout(w, "controller callback timed out", h.logger)
		return
	case result.ErrorType == callback.ErrorNetwork:
		response.Unavailable(w, "controller unreachable", h.logger)
		return
	default:
		// Controller rejected: propagate its status verbatim, no body.
		w.WriteHeader(result.StatusCode)
		return
	}

	err := h.manager.Open(conn, func() error {
		header := w.Header()
		header.Set("Content-Type", "text/event-stream")
		header.Set("Cache-Control", "no-cache")
		header.Set("Connection", "keep-alive")
		header.Set("X-Accel-Buffering", "no") // Disable nginx buffering

		// Flush immediately so the client enters event-source state.
		return conn.stream.Flush()
	}, result.Body)

	if err != nil {
		if errors.Is(err, ErrStreamClosed) {
			h.logger.Info("client disconnected during callback",
				slog.String("token", token))
			return
		}
		h.logger.Error("failed to open SSE stream",
			slog.String("token", token),
			slog.String("error", err.Error()))
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	// Hold the response open until the unifier or the listener ends it.
	<-conn.Closed()
}
