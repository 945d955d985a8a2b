package sse

import (
	"errors"
	"net/http"
	"time"
)

// ErrStreamClosed is returned by write paths once a connection has been
// claimed by the disconnect unifier. No bytes reach the client after it.
var ErrStreamClosed = errors.New("sse: stream closed")

// Stream is the writable side of one client connection. It narrows
// http.ResponseWriter to what the gateway needs: synchronous error-returning
// writes, an explicit flush so events leave the process immediately, and a
// per-write deadline so a stalled client fails the write instead of blocking
// a handler forever.
type Stream interface {
	Write(p []byte) (int, error)
	Flush() error
	SetWriteDeadline(t time.Time) error
}

// httpStream adapts an http.ResponseWriter through http.ResponseController.
type httpStream struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// NewHTTPStream wraps a live response writer for use as a Stream.
func NewHTTPStream(w http.ResponseWriter) Stream {
	return &httpStream{
		w:  w,
		rc: http.NewResponseController(w),
	}
}

func (s *httpStream) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

func (s *httpStream) Flush() error {
	return s.rc.Flush()
}

func (s *httpStream) SetWriteDeadline(t time.Time) error {
	return s.rc.SetWriteDeadline(t)
}
