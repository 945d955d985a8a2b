package callback

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client posts connect/disconnect payloads to the controller. The zero
// number of retries is deliberate: callbacks are best-effort, and the
// connect path maps failures straight onto the client's HTTP status.
//
// Safe for concurrent use; the underlying http.Client pools connections.
type Client struct {
	httpClient *http.Client
	url        string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewClient creates a callback client for the configured controller URL.
// An empty URL yields an unconfigured client; see Configured.
func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		// No http.Client.Timeout: the per-request context deadline covers
		// the whole exchange including the body read.
		httpClient: &http.Client{},
		url:        url,
		timeout:    timeout,
		logger:     logger,
	}
}

// Configured reports whether a controller URL is set.
func (c *Client) Configured() bool {
	return c.url != ""
}

// Connect asks the controller whether to accept a new stream.
func (c *Client) Connect(ctx context.Context, token string, info RequestInfo) Result {
	payload := connectPayload{
		Action:  ActionConnect,
		Token:   token,
		Request: info,
	}
	return c.do(ctx, ActionConnect, token, payload)
}

// Disconnect tells the controller a stream ended. The response body is
// accepted but carries no meaning; the caller may inspect Result.Body to
// warn about misuse.
func (c *Client) Disconnect(ctx context.Context, token string, reason Reason, info RequestInfo) Result {
	payload := disconnectPayload{
		Action:  ActionDisconnect,
		Reason:  reason,
		Token:   token,
		Request: info,
	}
	return c.do(ctx, ActionDisconnect, token, payload)
}

// do executes one callback request under a single deadline covering the
// request, the response headers, and the body read.
func (c *Client) do(ctx context.Context, action Action, token string, payload any) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		// Payloads are plain structs; this cannot happen in practice.
		c.logger.Error("failed to marshal callback payload",
			slog.String("action", string(action)),
			slog.String("token", token),
			slog.String("error", err.Error()))
		return Result{ErrorType: ErrorNetwork}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		c.logger.Error("failed to build callback request",
			slog.String("action", string(action)),
			slog.String("token", token),
			slog.String("error", err.Error()))
		return Result{ErrorType: ErrorNetwork}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{ErrorType: classifyTransportError(ctx, err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		// The deadline also covers the body read.
		return Result{
			StatusCode: resp.StatusCode,
			ErrorType:  classifyTransportError(ctx, err),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{
			StatusCode: resp.StatusCode,
			ErrorType:  ErrorHTTP,
		}
	}

	return Result{
		Success:    true,
		StatusCode: resp.StatusCode,
		Body:       c.parseResponseBody(respBody, action, token),
	}
}

// classifyTransportError maps a transport failure to timeout or network.
func classifyTransportError(ctx context.Context, err error) ErrorType {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrorTimeout
	}
	return ErrorNetwork
}

// parseResponseBody applies the lenient parsing rules:
//
//   - no body at all -> nil, silently
//   - unparseable, or not a JSON object -> nil, error log
//   - field with the wrong type -> dropped with a log, the other field kept
//   - valid but empty object -> non-nil empty ResponseBody
func (c *Client) parseResponseBody(data []byte, action Action, token string) *ResponseBody {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		c.logger.Error("callback response body is not a JSON object",
			slog.String("action", string(action)),
			slog.String("token", token),
			slog.String("body", trimForLog(data)),
			slog.String("error", err.Error()))
		return nil
	}

	body := &ResponseBody{}

	if rawClose, ok := raw["close"]; ok {
		if closeFlag, ok := rawClose.(bool); ok {
			body.Close = closeFlag
		} else {
			c.logger.Error("callback response field has wrong type, dropping it",
				slog.String("action", string(action)),
				slog.String("token", token),
				slog.String("field", "close"))
		}
	}

	if rawEvent, ok := raw["event"]; ok {
		if event, ok := parseBodyEvent(rawEvent); ok {
			body.Event = event
		} else {
			c.logger.Error("callback response field has wrong type, dropping it",
				slog.String("action", string(action)),
				slog.String("token", token),
				slog.String("field", "event"))
		}
	}

	return body
}

// parseBodyEvent validates the event field: data is a required string,
// name an optional one.
func parseBodyEvent(raw any) (*BodyEvent, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}

	data, ok := obj["data"].(string)
	if !ok {
		return nil, false
	}

	event := &BodyEvent{Data: data}

	if rawName, present := obj["name"]; present {
		name, ok := rawName.(string)
		if !ok {
			return nil, false
		}
		event.Name = name
	}

	return event, true
}

// trimForLog shortens a body for diagnostics without flooding the log.
func trimForLog(data []byte) string {
	const maxLen = 256
	s := strings.TrimSpace(string(data))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
