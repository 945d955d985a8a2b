package providers

import (
	"github.com/samber/do/v2"

	"github.com/streamgateapp/streamgate/internal/callback"
	"github.com/streamgateapp/streamgate/internal/config"
	"github.com/streamgateapp/streamgate/internal/logger"
	"github.com/streamgateapp/streamgate/internal/sse"
)

// CallbackClientHandle wraps the controller callback client.
type CallbackClientHandle struct {
	*callback.Client
}

// ProvideCallbackClient provides the controller callback client.
func ProvideCallbackClient(i do.Injector) (*CallbackClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := callback.NewClient(cfg.Callback.URL, cfg.Callback.Timeout, log.Logger)
	return &CallbackClientHandle{Client: client}, nil
}

// SSEManagerHandle wraps sse.Manager with Shutdownable.
type SSEManagerHandle struct {
	*sse.Manager
}

// Shutdown implements do.Shutdownable. Draining emits a server_closed
// disconnect callback for every open stream; idempotent, so the HTTP
// server handle draining first is harmless.
func (h *SSEManagerHandle) Shutdown() error {
	h.Drain()
	return nil
}

// ProvideSSEManager provides the connection manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	callbacks := do.MustInvoke[*CallbackClientHandle](i)

	manager := sse.NewManager(callbacks.Client, cfg.SSE.HeartbeatInterval, log.Logger)
	return &SSEManagerHandle{Manager: manager}, nil
}
