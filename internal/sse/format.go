// Package sse implements the gateway's Server-Sent Events core: wire
// framing, the connection registry, the per-connection heartbeat loop,
// and the disconnect unifier that guarantees at-most-once disconnect
// callbacks.
package sse

import "strings"

// Heartbeat is the comment frame written on every heartbeat tick.
// SSE comments are invisible to EventSource clients; the trailing blank
// line terminates the block. Heartbeats are never built via FormatEvent.
const Heartbeat = ": heartbeat\n\n"

// FormatEvent renders one SSE event block.
//
// An optional non-empty name becomes an "event:" line. The data payload is
// split on '\n' and every segment becomes its own "data:" line, so empty
// data still produces exactly one empty "data:" line. The block ends with a
// blank line.
//
// Content is not validated; the controller is trusted. A name containing a
// newline produces a malformed event, which is the controller's problem.
func FormatEvent(name, data string) string {
	var b strings.Builder
	b.Grow(len(name) + len(data) + 16)

	if name != "" {
		b.WriteString("event: ")
		b.WriteString(name)
		b.WriteByte('\n')
	}

	for _, segment := range strings.Split(data, "\n") {
		b.WriteString("data: ")
		b.WriteString(segment)
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	return b.String()
}
