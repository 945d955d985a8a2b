package sse

import (
	"context"
	"log/slog"
	"time"

	"github.com/streamgateapp/streamgate/internal/callback"
	"github.com/streamgateapp/streamgate/internal/errors"
)

// Event is one server-sent event bound for a client.
type Event struct {
	Name string
	Data string
}

// Manager owns the connection registry and every state transition a live
// connection can make: open, event delivery, server close, client close,
// and the heartbeat loop. All transitions for one connection are serialized
// on the connection's mutex; the disconnect path funnels through a single
// unifier so at most one disconnect callback is ever emitted per record.
type Manager struct {
	registry          *Registry
	callbacks         *callback.Client
	logger            *slog.Logger
	heartbeatInterval time.Duration
}

// NewManager creates a manager delivering heartbeats at the given interval.
func NewManager(callbacks *callback.Client, heartbeatInterval time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		registry:          NewRegistry(),
		callbacks:         callbacks,
		logger:            logger,
		heartbeatInterval: heartbeatInterval,
	}
}

// Len returns the number of open connections.
func (m *Manager) Len() int {
	return m.registry.Len()
}

// HeartbeatInterval returns the configured heartbeat period.
func (m *Manager) HeartbeatInterval() time.Duration {
	return m.heartbeatInterval
}

// Has reports whether a token is currently open.
func (m *Manager) Has(token string) bool {
	return m.registry.Has(token)
}

// Open runs the connect critical section after a successful controller
// callback: start writes the SSE headers, the connection enters the
// registry, the heartbeat loop starts, and any event/close the controller
// piggy-backed on its response is applied. Everything up to the response
// body write holds the connection mutex, so the disconnect listener cannot
// interleave and a racing /internal/send cannot write before the welcome
// event.
//
// Returns ErrStreamClosed when the client disconnected while the callback
// was in flight; the caller must not touch the response afterwards.
func (m *Manager) Open(conn *Connection, start func() error, body *callback.ResponseBody) error {
	conn.mu.Lock()

	if conn.disconnected {
		conn.mu.Unlock()
		return ErrStreamClosed
	}

	if err := start(); err != nil {
		conn.mu.Unlock()
		return err
	}

	if err := m.registry.Add(conn.token, conn); err != nil {
		conn.mu.Unlock()
		return err
	}
	conn.registered = true

	stop := make(chan struct{})
	conn.stopHeartbeat = func() { close(stop) }

	// Welcome event, if the controller sent one, goes out before anything
	// else can touch the stream.
	var writeErr error
	var wantClose bool
	if body != nil {
		if body.Event != nil {
			writeErr = conn.writeLocked(FormatEvent(body.Event.Name, body.Event.Data))
		}
		wantClose = body.Close
	}

	conn.mu.Unlock()

	go m.heartbeatLoop(conn, stop)

	m.logger.Info("SSE connection opened",
		slog.String("token", conn.token),
		slog.String("url", conn.info.URL),
		slog.Int("total_connections", m.registry.Len()))

	if writeErr != nil {
		// The record reached open, so the error path owes the controller
		// exactly one disconnect callback.
		m.logger.Error("welcome event write failed",
			slog.String("token", conn.token),
			slog.String("error", writeErr.Error()))
		m.disconnect(conn, callback.ReasonError)
		return nil
	}

	if wantClose {
		m.disconnect(conn, callback.ReasonServerClosed)
	}

	return nil
}

// Send delivers an event and/or a server-initiated close to an open
// connection. The event always reaches the writer before any close action;
// a write failure takes the error path and skips the close entirely.
func (m *Manager) Send(token string, event *Event, closeStream bool) error {
	conn, ok := m.registry.Get(token)
	if !ok {
		return errors.NotFound("unknown token")
	}

	if event != nil {
		conn.mu.Lock()
		err := conn.writeLocked(FormatEvent(event.Name, event.Data))
		conn.mu.Unlock()

		if err != nil {
			m.logger.Error("event write failed",
				slog.String("token", token),
				slog.String("error", err.Error()))
			m.disconnect(conn, callback.ReasonError)
			return errors.Wrap(err, errors.CodeInternal, "event write failed")
		}
	}

	if closeStream {
		m.disconnect(conn, callback.ReasonServerClosed)
	}

	return nil
}

// HandleClientClose is the disconnect listener body. Before the connection
// is registered it only marks the record dead, which makes the pending open
// abort; afterwards it runs the unifier.
func (m *Manager) HandleClientClose(conn *Connection) {
	conn.mu.Lock()
	if !conn.registered {
		conn.disconnected = true
		conn.mu.Unlock()
		conn.endStream()
		return
	}
	conn.mu.Unlock()

	m.disconnect(conn, callback.ReasonClientClosed)
}

// Drain closes every open connection with reason server_closed. Used on
// shutdown so the controller observes each closure.
func (m *Manager) Drain() {
	for conn := range m.registry.All() {
		m.disconnect(conn, callback.ReasonServerClosed)
	}
}

// disconnect is the unifier: the single code path for every terminal
// transition. Registry removal is the dedup barrier; whoever loses the
// race returns immediately, so each record emits at most one disconnect
// callback. The callback is awaited, never retried, and failures are
// log-only.
func (m *Manager) disconnect(conn *Connection, reason callback.Reason) bool {
	if !m.registry.Remove(conn.token) {
		// Another path already cleaned up.
		return false
	}

	conn.mu.Lock()
	conn.disconnected = true
	conn.registered = false
	conn.cancelHeartbeatLocked()
	conn.mu.Unlock()

	// Releases the connect handler, which ends the underlying response.
	conn.endStream()

	result := m.callbacks.Disconnect(context.Background(), conn.token, reason, conn.info)
	switch {
	case !result.Success:
		m.logger.Error("disconnect callback failed",
			slog.String("token", conn.token),
			slog.String("reason", string(reason)),
			slog.Int("status", result.StatusCode),
			slog.String("error_type", string(result.ErrorType)))
	case !result.Body.Empty():
		// Disconnect responses carry no meaning; flag controllers that
		// try to use them anyway.
		m.logger.Warn("disconnect callback response carried event/close, ignoring",
			slog.String("token", conn.token))
	}

	m.logger.Info("SSE connection closed",
		slog.String("token", conn.token),
		slog.String("reason", string(reason)),
		slog.Duration("duration", time.Since(conn.connectedAt)),
		slog.Int("total_connections", m.registry.Len()))

	return true
}

// heartbeatLoop keeps one connection alive with comment frames. Heartbeats
// are best-effort: a failed write is logged and the loop keeps ticking,
// because the stream's own close event reaches the disconnect listener and
// that path owns cleanup. Successful ticks are never logged.
func (m *Manager) heartbeatLoop(conn *Connection, stop <-chan struct{}) {
	ticker := time.NewTicker(m.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !m.registry.Has(conn.token) {
				// Raced with removal.
				return
			}

			conn.mu.Lock()
			err := conn.writeLocked(Heartbeat)
			conn.mu.Unlock()

			if err != nil {
				if errors.Is(err, ErrStreamClosed) {
					return
				}
				m.logger.Error("heartbeat write failed",
					slog.String("token", conn.token),
					slog.String("error", err.Error()))
			}

		case <-stop:
			return
		}
	}
}
