// Package providers contains dependency injection providers for the gateway.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/streamgateapp/streamgate/internal/config"
	"github.com/streamgateapp/streamgate/internal/id"
	"github.com/streamgateapp/streamgate/internal/logger"
)

// InstanceID labels this gateway process in logs, /healthz, and the ops API.
type InstanceID string

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting StreamGate gateway",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"heartbeat_interval", cfg.SSE.HeartbeatInterval,
		"callback_configured", cfg.Configured(),
	)

	// Problems found before the logger existed surface here.
	for _, warning := range cfg.Warnings() {
		log.Error("Configuration problem", "detail", warning)
	}

	if !cfg.Configured() {
		log.Warn("No callback URL configured - stream endpoints will answer 503 until one is set")
	}

	return log, nil
}

// ProvideInstanceID provides the process instance identifier.
func ProvideInstanceID(i do.Injector) (InstanceID, error) {
	instanceID, err := id.Generate("gw")
	if err != nil {
		return "", err
	}

	log := do.MustInvoke[*logger.Logger](i)
	log.Info("Gateway instance ID assigned", "instance_id", instanceID)

	return InstanceID(instanceID), nil
}
