package callback

import (
	"net/http"
	"strings"
)

// UnknownURL is the snapshot fallback when the request URL cannot be
// reconstructed.
const UnknownURL = "/sse/unknown"

// RequestInfo is the byte-verbatim snapshot of a client request, taken at
// connect time and forwarded unchanged on both the connect and disconnect
// callbacks. The gateway never parses or validates it; the controller does.
type RequestInfo struct {
	// URL is the raw path plus query string.
	URL string `json:"url"`
	// Headers maps lowercase header names to a string for single-valued
	// headers or a []string preserving order for multi-valued ones.
	Headers map[string]any `json:"headers"`
}

// Snapshot captures the URL and headers of an incoming request.
func Snapshot(r *http.Request) RequestInfo {
	info := RequestInfo{
		URL:     UnknownURL,
		Headers: make(map[string]any, len(r.Header)+1),
	}

	if r.URL != nil {
		if uri := r.URL.RequestURI(); uri != "" {
			info.URL = uri
		}
	}

	// Go's server strips Host into its own field; the controller expects it
	// with the rest of the headers.
	if r.Host != "" {
		info.Headers["host"] = r.Host
	}

	for name, values := range r.Header {
		switch len(values) {
		case 0:
			// Nothing to forward.
		case 1:
			info.Headers[strings.ToLower(name)] = values[0]
		default:
			forwarded := make([]string, len(values))
			copy(forwarded, values)
			info.Headers[strings.ToLower(name)] = forwarded
		}
	}

	return info
}
