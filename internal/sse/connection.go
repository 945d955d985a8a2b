package sse

import (
	"sync"
	"time"

	"github.com/streamgateapp/streamgate/internal/callback"
)

// writeDeadline bounds each stream write. A client that stops reading fails
// the next write instead of wedging the connection's handler.
const writeDeadline = 60 * time.Second

// Connection is the in-memory record for one client stream.
//
// The connect handler owns it transiently until the registry insert; after
// that it is shared between the handler, the heartbeat loop, and
// /internal/send dispatch. All state transitions and writes are serialized
// by mu.
type Connection struct {
	token       string
	info        callback.RequestInfo
	stream      Stream
	connectedAt time.Time

	mu            sync.Mutex
	disconnected  bool   // set once by the unifier or a pre-open abort; never cleared
	registered    bool   // true while the registry holds this record
	stopHeartbeat func() // non-nil only while the heartbeat loop is running

	closeOnce sync.Once
	closed    chan struct{}
}

// NewConnection creates a pending record for a freshly arrived client.
func NewConnection(token string, info callback.RequestInfo, stream Stream) *Connection {
	return &Connection{
		token:       token,
		info:        info,
		stream:      stream,
		connectedAt: time.Now(),
		closed:      make(chan struct{}),
	}
}

// Token returns the connection's opaque identifier.
func (c *Connection) Token() string {
	return c.token
}

// Info returns the request snapshot taken at connect time. It is forwarded
// verbatim on both the connect and disconnect callbacks.
func (c *Connection) Info() callback.RequestInfo {
	return c.info
}

// Closed is closed when the stream has ended and the connect handler may
// return, which releases the underlying response.
func (c *Connection) Closed() <-chan struct{} {
	return c.closed
}

// cancelHeartbeatLocked stops the heartbeat loop if it is running. The
// caller must hold c.mu. Idempotent: a second call finds nil and does
// nothing.
func (c *Connection) cancelHeartbeatLocked() {
	if c.stopHeartbeat != nil {
		c.stopHeartbeat()
		c.stopHeartbeat = nil
	}
}

// endStream releases the connect handler. Idempotent.
func (c *Connection) endStream() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}

// writeLocked pushes a frame to the client and flushes it. The caller must
// hold c.mu; the disconnected check under that lock is what makes "no write
// after disconnect" hold.
func (c *Connection) writeLocked(frame string) error {
	if c.disconnected {
		return ErrStreamClosed
	}
	if _, err := c.stream.Write([]byte(frame)); err != nil {
		return err
	}
	if err := c.stream.Flush(); err != nil {
		return err
	}
	// Refresh the per-write deadline. Not every ResponseWriter supports
	// deadlines (test recorders do not), so a failure here is not fatal.
	_ = c.stream.SetWriteDeadline(time.Now().Add(writeDeadline))
	return nil
}
