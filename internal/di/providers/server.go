package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/streamgateapp/streamgate/internal/api"
	"github.com/streamgateapp/streamgate/internal/config"
	"github.com/streamgateapp/streamgate/internal/logger"
	"github.com/streamgateapp/streamgate/internal/sse"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server

	handler *api.Server
	manager *sse.Manager
	logger  *logger.Logger
}

// Shutdown implements do.Shutdownable. The SSE manager drains first: open
// streams block inside their handlers, and http.Server.Shutdown waits for
// handlers, so draining after it would stall until the timeout.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	h.logger.Info("Draining SSE connections", "connections", h.manager.Len())
	h.manager.Drain()
	h.handler.Close()

	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server, already listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	instanceID := do.MustInvoke[InstanceID](i)
	callbacks := do.MustInvoke[*CallbackClientHandle](i)
	managerHandle := do.MustInvoke[*SSEManagerHandle](i)

	handler := api.NewServer(cfg, managerHandle.Manager, callbacks.Client, string(instanceID), log.Logger)

	srv := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     handler,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
		// WriteTimeout stays zero: SSE responses live for hours, and the
		// stream layer applies a per-write deadline instead.
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Gateway running", "addr", srv.Addr)

	return &HTTPServerHandle{
		Server:  srv,
		handler: handler,
		manager: managerHandle.Manager,
		logger:  log,
	}, nil
}
