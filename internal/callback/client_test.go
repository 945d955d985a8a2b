package callback

import (
	"context"
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testInfo() RequestInfo {
	return RequestInfo{
		URL:     "/sse/room?u=1",
		Headers: map[string]any{"accept": "text/event-stream"},
	}
}

func TestConnect_PayloadShape(t *testing.T) {
	var received map[string]any
	var contentType string

	controller := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusOK)
	}))
	defer controller.Close()

	client := NewClient(controller.URL, time.Second, testLogger())
	result := client.Connect(context.Background(), "tok-1", testInfo())

	assert.True(t, result.Success)
	assert.Equal(t, http.StatusOK, result.StatusCode)

	assert.Equal(t, "connect", received["action"])
	assert.Equal(t, "tok-1", received["token"])

	request, ok := received["request"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/sse/room?u=1", request["url"])

	headers, ok := request["headers"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "text/event-stream", headers["accept"])

	assert.Equal(t, "application/json", contentType)
}

func TestDisconnect_PayloadShape(t *testing.T) {
	var received map[string]any

	controller := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusOK)
	}))
	defer controller.Close()

	client := NewClient(controller.URL, time.Second, testLogger())
	result := client.Disconnect(context.Background(), "tok-1", ReasonClientClosed, testInfo())

	assert.True(t, result.Success)
	assert.Equal(t, "disconnect", received["action"])
	assert.Equal(t, "client_closed", received["reason"])
	assert.Equal(t, "tok-1", received["token"])
}

func TestDo_NonTwoHundred(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"unauthorized", http.StatusUnauthorized},
		{"forbidden", http.StatusForbidden},
		{"teapot", http.StatusTeapot},
		{"server error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			controller := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer controller.Close()

			client := NewClient(controller.URL, time.Second, testLogger())
			result := client.Connect(context.Background(), "tok-1", testInfo())

			assert.False(t, result.Success)
			assert.Equal(t, ErrorHTTP, result.ErrorType)
			// The status is preserved so the connect handler can propagate it.
			assert.Equal(t, tt.status, result.StatusCode)
			assert.Nil(t, result.Body)
		})
	}
}

func TestDo_Timeout(t *testing.T) {
	blocked := make(chan struct{})
	controller := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-blocked
	}))
	defer controller.Close()
	defer close(blocked)

	client := NewClient(controller.URL, 50*time.Millisecond, testLogger())

	start := time.Now()
	result := client.Connect(context.Background(), "tok-1", testInfo())

	assert.False(t, result.Success)
	assert.Equal(t, ErrorTimeout, result.ErrorType)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDo_TimeoutCoversBodyRead(t *testing.T) {
	blocked := make(chan struct{})
	controller := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Headers arrive promptly; the body never finishes.
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		<-blocked
	}))
	defer controller.Close()
	defer close(blocked)

	client := NewClient(controller.URL, 50*time.Millisecond, testLogger())
	result := client.Connect(context.Background(), "tok-1", testInfo())

	assert.False(t, result.Success)
	assert.Equal(t, ErrorTimeout, result.ErrorType)
}

func TestDo_NetworkError(t *testing.T) {
	controller := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	controller.Close() // refuse connections

	client := NewClient(controller.URL, time.Second, testLogger())
	result := client.Connect(context.Background(), "tok-1", testInfo())

	assert.False(t, result.Success)
	assert.Equal(t, ErrorNetwork, result.ErrorType)
	assert.Zero(t, result.StatusCode)
}

func TestParseResponseBody_Lenient(t *testing.T) {
	client := NewClient("http://unused", time.Second, testLogger())

	tests := []struct {
		name string
		body string
		want *ResponseBody
	}{
		{
			name: "no body",
			body: "",
			want: nil,
		},
		{
			name: "whitespace only",
			body: "  \n",
			want: nil,
		},
		{
			name: "not json",
			body: "welcome!",
			want: nil,
		},
		{
			name: "json but not an object",
			body: `[1,2,3]`,
			want: nil,
		},
		{
			name: "valid empty object",
			body: `{}`,
			want: &ResponseBody{},
		},
		{
			name: "close only",
			body: `{"close":true}`,
			want: &ResponseBody{Close: true},
		},
		{
			name: "event only",
			body: `{"event":{"name":"hello","data":"hi"}}`,
			want: &ResponseBody{Event: &BodyEvent{Name: "hello", Data: "hi"}},
		},
		{
			name: "event without name",
			body: `{"event":{"data":"hi"}}`,
			want: &ResponseBody{Event: &BodyEvent{Data: "hi"}},
		},
		{
			name: "event and close",
			body: `{"event":{"name":"hello","data":"hi"},"close":true}`,
			want: &ResponseBody{Event: &BodyEvent{Name: "hello", Data: "hi"}, Close: true},
		},
		{
			name: "close wrong type dropped, event kept",
			body: `{"event":{"data":"hi"},"close":"yes"}`,
			want: &ResponseBody{Event: &BodyEvent{Data: "hi"}},
		},
		{
			name: "event wrong type dropped, close kept",
			body: `{"event":"hi","close":true}`,
			want: &ResponseBody{Close: true},
		},
		{
			name: "event missing data dropped",
			body: `{"event":{"name":"hello"},"close":true}`,
			want: &ResponseBody{Close: true},
		},
		{
			name: "event data wrong type dropped",
			body: `{"event":{"data":42}}`,
			want: &ResponseBody{},
		},
		{
			name: "event name wrong type drops the event",
			body: `{"event":{"name":7,"data":"hi"}}`,
			want: &ResponseBody{},
		},
		{
			name: "unknown fields ignored",
			body: `{"welcome":"aboard","close":false}`,
			want: &ResponseBody{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := client.parseResponseBody([]byte(tt.body), ActionConnect, "tok-1")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResponseBody_RoundTrip(t *testing.T) {
	client := NewClient("http://unused", time.Second, testLogger())

	original := `{"event":{"name":"hello","data":"hi"},"close":true}`

	parsed := client.parseResponseBody([]byte(original), ActionConnect, "tok-1")
	require.NotNil(t, parsed)

	serialized, err := json.Marshal(parsed)
	require.NoError(t, err)

	reparsed := client.parseResponseBody(serialized, ActionConnect, "tok-1")
	assert.Equal(t, parsed, reparsed)
}

func TestResponseBody_Empty(t *testing.T) {
	assert.True(t, (&ResponseBody{}).Empty())
	assert.True(t, (*ResponseBody)(nil).Empty())
	assert.False(t, (&ResponseBody{Close: true}).Empty())
	assert.False(t, (&ResponseBody{Event: &BodyEvent{Data: ""}}).Empty())
}

func TestConfigured(t *testing.T) {
	assert.False(t, NewClient("", time.Second, testLogger()).Configured())
	assert.True(t, NewClient("http://controller/cb", time.Second, testLogger()).Configured())
}
