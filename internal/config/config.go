// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

// Package config loads the server configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/weather-mcp/weather/forecast"
	"github.com/weather-mcp/weather/openmeteo"
	"github.com/weather-mcp/weather/report"
	"github.com/weather-mcp/weather/weatherserver"
)

// Config holds application configuration.
type Config struct {
	Transport weatherserver.Transport
	Host      string
	Port      int
	MountPath string

	DataDir string

	OpenMeteoBaseURL string
	UserAgent        string

	MaxAttempts  int
	InitialDelay time.Duration

	LogLevel slog.Level
}

// ErrInvalidEnvVar reports an environment variable whose value cannot be
// used.
type ErrInvalidEnvVar struct {
	Name  string
	Value string
	Err   error
}

func (e *ErrInvalidEnvVar) Error() string {
	return fmt.Sprintf("environment variable %q has invalid value %q: %v", e.Name, e.Value, e.Err)
}

func (e *ErrInvalidEnvVar) Unwrap() error {
	return e.Err
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Load reads configuration from environment variables, applying defaults
// for unset ones. It returns an *ErrInvalidEnvVar for values that do not
// parse.
func Load() (*Config, error) {
	config := Config{
		Host:             getEnv("WEATHER_HOST", "127.0.0.1"),
		MountPath:        getEnv("WEATHER_MOUNT_PATH", weatherserver.DefaultMountPath),
		DataDir:          getEnv("WEATHER_DATA_DIR", report.DefaultDir),
		OpenMeteoBaseURL: getEnv("OPEN_METEO_BASE_URL", openmeteo.DefaultBaseURL),
		UserAgent:        getEnv("WEATHER_USER_AGENT", openmeteo.DefaultUserAgent),
	}

	raw := getEnv("WEATHER_TRANSPORT", string(weatherserver.StreamableHTTP))
	transport, err := weatherserver.ParseTransport(raw)
	if err != nil {
		return nil, &ErrInvalidEnvVar{Name: "WEATHER_TRANSPORT", Value: raw, Err: err}
	}
	config.Transport = transport

	if config.Port, err = intEnv("WEATHER_PORT", 8000, 0, 65535); err != nil {
		return nil, err
	}
	if config.MaxAttempts, err = intEnv("WEATHER_MAX_ATTEMPTS", forecast.DefaultMaxAttempts, 1, 100); err != nil {
		return nil, err
	}

	raw = getEnv("WEATHER_INITIAL_DELAY", forecast.DefaultInitialDelay.String())
	config.InitialDelay, err = time.ParseDuration(raw)
	if err == nil && config.InitialDelay < 0 {
		err = fmt.Errorf("must not be negative")
	}
	if err != nil {
		return nil, &ErrInvalidEnvVar{Name: "WEATHER_INITIAL_DELAY", Value: raw, Err: err}
	}

	raw = getEnv("WEATHER_LOG_LEVEL", "info")
	if err := config.LogLevel.UnmarshalText([]byte(raw)); err != nil {
		return nil, &ErrInvalidEnvVar{Name: "WEATHER_LOG_LEVEL", Value: raw, Err: err}
	}

	return &config, nil
}

func intEnv(key string, fallback, lo, hi int) (int, error) {
	raw := getEnv(key, strconv.Itoa(fallback))
	n, err := strconv.Atoi(raw)
	if err == nil && (n < lo || n > hi) {
		err = fmt.Errorf("out of range [%d, %d]", lo, hi)
	}
	if err != nil {
		return 0, &ErrInvalidEnvVar{Name: key, Value: raw, Err: err}
	}
	return n, nil
}
