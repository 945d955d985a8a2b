package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/streamgateapp/streamgate/internal/callback"
)

func TestConnection_CancelHeartbeatIdempotent(t *testing.T) {
	conn := newTestConnection("tok-1")

	stop := make(chan struct{})
	conn.mu.Lock()
	conn.stopHeartbeat = func() { close(stop) }

	// A second cancel finds nil and must not close the channel again.
	conn.cancelHeartbeatLocked()
	conn.cancelHeartbeatLocked()
	conn.mu.Unlock()

	select {
	case <-stop:
	default:
		t.Fatal("heartbeat stop channel not closed")
	}
}

func TestConnection_EndStreamIdempotent(t *testing.T) {
	conn := newTestConnection("tok-1")

	conn.endStream()
	conn.endStream()

	select {
	case <-conn.Closed():
	default:
		t.Fatal("closed channel not closed")
	}
}

func TestConnection_WriteAfterDisconnectRefused(t *testing.T) {
	stream := newFakeStream()
	conn := NewConnection("tok-1", callback.RequestInfo{URL: "/sse/test"}, stream)

	conn.mu.Lock()
	conn.disconnected = true
	err := conn.writeLocked("data: x\n\n")
	conn.mu.Unlock()

	assert.ErrorIs(t, err, ErrStreamClosed)
	assert.Empty(t, stream.contents())
}
