// Package config provides gateway configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default values for options the gateway can run without.
const (
	DefaultHeartbeatSeconds = 15
	MinHeartbeatSeconds     = 1
	DefaultCallbackTimeout  = 5 * time.Second
)

// Config holds the gateway configuration. It is immutable after LoadConfig
// returns; subsystems receive it by pointer and never write to it.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Server   ServerConfig
	Callback CallbackConfig
	SSE      SSEConfig

	// warnings collected during load, reported once the logger exists.
	warnings []string
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        string        // Listen port (default: 8080)
	ReadTimeout time.Duration // HTTP read timeout (default: 15s)
	IdleTimeout time.Duration // HTTP idle timeout (default: 60s)
	// WriteTimeout is deliberately absent: SSE responses live for hours, so
	// the server runs with WriteTimeout=0 and the stream layer applies a
	// per-write deadline instead.
	CORSOrigins []string // Allowed origins for cross-origin EventSource (default: *)
}

// CallbackConfig holds controller callback configuration.
type CallbackConfig struct {
	// URL is the absolute controller callback URL. Empty disables the
	// service: /sse/* and /internal/send answer 503 until it is set.
	URL string
	// Timeout bounds each callback request including the body read.
	Timeout time.Duration
}

// SSEConfig holds stream configuration.
type SSEConfig struct {
	// HeartbeatInterval is the period of the per-connection heartbeat loop.
	HeartbeatInterval time.Duration
	// ConnectRatePerMinute limits per-IP connects; 0 disables the limiter.
	ConnectRatePerMinute int
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	callbackURL := flag.String("callback-url", "", "Controller callback URL")
	callbackTimeout := flag.String("callback-timeout", "", "Controller callback timeout (default: 5s)")
	heartbeatInterval := flag.String("heartbeat-interval", "", "Heartbeat interval in seconds (default: 15)")
	connectRate := flag.String("connect-rate", "", "Per-IP connects per minute, 0 disables (default: 0)")
	corsOrigins := flag.String("cors-origins", "", "Comma-separated allowed CORS origins (default: *)")

	// Server flags
	serverPort := flag.String("port", "", "Listen port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "PORT", "8080"),
			CORSOrigins: splitOrigins(getConfigValue(*corsOrigins, "CORS_ALLOWED_ORIGINS", "*")),
		},
		Callback: CallbackConfig{
			URL: getConfigValue(*callbackURL, "CALLBACK_URL", ""),
		},
	}

	// Parse callback timeout.
	callbackTimeoutStr := getConfigValue(*callbackTimeout, "CALLBACK_TIMEOUT", "5s")
	callbackTimeoutDuration, err := time.ParseDuration(callbackTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid callback timeout %q: %w", callbackTimeoutStr, err)
	}
	cfg.Callback.Timeout = callbackTimeoutDuration

	// Parse heartbeat interval. Invalid values fall back to the default
	// with a deferred warning rather than failing startup.
	heartbeatStr := getConfigValue(*heartbeatInterval, "HEARTBEAT_INTERVAL_SECONDS", "")
	interval, warning := parseHeartbeatSeconds(heartbeatStr)
	cfg.SSE.HeartbeatInterval = interval
	if warning != "" {
		cfg.warnings = append(cfg.warnings, warning)
	}

	// Parse connect rate limit.
	connectRateStr := getConfigValue(*connectRate, "SSE_CONNECT_RATE", "")
	cfg.SSE.ConnectRatePerMinute, warning = parseConnectRate(connectRateStr)
	if warning != "" {
		cfg.warnings = append(cfg.warnings, warning)
	}

	// Parse server timeouts.
	readTimeoutStr := getConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	readTimeoutDuration, err := time.ParseDuration(readTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout %q: %w", readTimeoutStr, err)
	}
	cfg.Server.ReadTimeout = readTimeoutDuration

	idleTimeoutStr := getConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	idleTimeoutDuration, err := time.ParseDuration(idleTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid idle timeout %q: %w", idleTimeoutStr, err)
	}
	cfg.Server.IdleTimeout = idleTimeoutDuration

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Warnings returns non-fatal problems found during load. They are logged
// once the logger exists.
func (c *Config) Warnings() []string {
	return c.warnings
}

// Configured reports whether a controller callback URL is set. When false,
// the client-facing endpoints answer 503.
func (c *Config) Configured() bool {
	return c.Callback.URL != ""
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	// Listen port is fail-fast: a gateway that cannot bind is useless.
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid listen port: %q (must be an integer between 1 and 65535)", c.Server.Port)
	}

	// Callback URL may be empty (service answers 503), but a set value must
	// be an absolute http(s) URL.
	if c.Callback.URL != "" {
		u, err := url.Parse(c.Callback.URL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("invalid callback URL: %q (must be an absolute http or https URL)", c.Callback.URL)
		}
	}

	if c.Callback.Timeout <= 0 {
		return fmt.Errorf("invalid callback timeout: %s (must be positive)", c.Callback.Timeout)
	}

	return nil
}

// parseHeartbeatSeconds converts the raw heartbeat option to a duration.
// Empty uses the default silently; non-integer or sub-minimum values fall
// back to the default and return a warning for the deferred error log.
func parseHeartbeatSeconds(raw string) (time.Duration, string) {
	if raw == "" {
		return DefaultHeartbeatSeconds * time.Second, ""
	}

	seconds, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultHeartbeatSeconds * time.Second,
			fmt.Sprintf("invalid heartbeat interval %q: not an integer, using default %ds", raw, DefaultHeartbeatSeconds)
	}
	if seconds < MinHeartbeatSeconds {
		return DefaultHeartbeatSeconds * time.Second,
			fmt.Sprintf("invalid heartbeat interval %d: below minimum %d, using default %ds", seconds, MinHeartbeatSeconds, DefaultHeartbeatSeconds)
	}

	return time.Duration(seconds) * time.Second, ""
}

// parseConnectRate converts the raw connect-rate option. Zero or empty
// disables the limiter; invalid values disable it with a warning.
func parseConnectRate(raw string) (int, string) {
	if raw == "" {
		return 0, ""
	}

	perMinute, err := strconv.Atoi(raw)
	if err != nil || perMinute < 0 {
		return 0, fmt.Sprintf("invalid connect rate %q: must be a non-negative integer, limiter disabled", raw)
	}

	return perMinute, ""
}

// splitOrigins parses the comma-separated CORS origin list.
func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return origins
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Strip optional quotes.
		value = strings.Trim(value, `"'`)

		// Environment variables already set take precedence over the file.
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}

	return scanner.Err()
}
