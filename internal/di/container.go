// Package di provides dependency injection configuration for the gateway.
package di

import (
	"github.com/samber/do/v2"

	"github.com/streamgateapp/streamgate/internal/config"
	"github.com/streamgateapp/streamgate/internal/di/providers"
	"github.com/streamgateapp/streamgate/internal/logger"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideInstanceID)

	// Gateway core
	do.Provide(injector, providers.ProvideCallbackClient)
	do.Provide(injector, providers.ProvideSSEManager)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns once the gateway is
// serving. Invocation order matters: the container shuts services down in
// reverse, so the HTTP server goes first and the config last.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[providers.InstanceID](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.CallbackClientHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SSEManagerHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}
	return nil
}
