// Package callback implements the gateway's outbound HTTP protocol to the
// controller: connect and disconnect notifications with a bounded deadline,
// error classification, and lenient parsing of the controller's optional
// response body.
package callback

// Action identifies the callback payload kind.
type Action string

const (
	// ActionConnect asks the controller whether to accept a new stream.
	ActionConnect Action = "connect"
	// ActionDisconnect tells the controller a stream has ended.
	ActionDisconnect Action = "disconnect"
)

// Reason describes why a connection ended. It travels on the disconnect
// payload and is part of the controller contract.
type Reason string

const (
	// ReasonClientClosed means the browser went away.
	ReasonClientClosed Reason = "client_closed"
	// ReasonServerClosed means the controller (or a gateway drain) ended the stream.
	ReasonServerClosed Reason = "server_closed"
	// ReasonError means a write to the client failed.
	ReasonError Reason = "error"
)

// ErrorType classifies a failed callback.
type ErrorType string

const (
	// ErrorTimeout means the deadline expired before the response body was read.
	ErrorTimeout ErrorType = "timeout"
	// ErrorNetwork covers transport failures: refused, DNS, TLS, resets.
	ErrorNetwork ErrorType = "network"
	// ErrorHTTP means the controller answered with a non-2xx status.
	ErrorHTTP ErrorType = "http_error"
)

// connectPayload is the JSON body of a connect callback.
type connectPayload struct {
	Action  Action      `json:"action"`
	Token   string      `json:"token"`
	Request RequestInfo `json:"request"`
}

// disconnectPayload is the JSON body of a disconnect callback.
type disconnectPayload struct {
	Action  Action      `json:"action"`
	Reason  Reason      `json:"reason"`
	Token   string      `json:"token"`
	Request RequestInfo `json:"request"`
}

// Result is the outcome of one callback request.
type Result struct {
	// Success is true iff the controller answered 2xx with no transport error.
	Success bool
	// StatusCode is set whenever a response was received.
	StatusCode int
	// ErrorType is set on failure.
	ErrorType ErrorType
	// Body is present only on success, and only if the response body parsed
	// as a valid ResponseBody. A 2xx with no body at all leaves it nil.
	Body *ResponseBody
}

// ResponseBody is the controller's optional answer to a connect callback.
// An empty (but valid) body is represented by a non-nil zero value so
// callers can distinguish "parsed, no action" from "unparseable".
type ResponseBody struct {
	Event *BodyEvent `json:"event,omitempty"`
	Close bool       `json:"close,omitempty"`
}

// BodyEvent is a first event the controller piggy-backs on its connect
// response. Data is required; Name is optional.
type BodyEvent struct {
	Name string `json:"name,omitempty"`
	Data string `json:"data"`
}

// Empty reports whether the body requests no action.
func (b *ResponseBody) Empty() bool {
	return b == nil || (b.Event == nil && !b.Close)
}
