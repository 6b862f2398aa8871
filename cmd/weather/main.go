// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

// Command weather runs the weather forecast MCP server.
//
// Usage:
//
//	weather [run] [--version] [--transport stdio|streamable-http|sse]
//	        [--host HOST] [--port PORT] [--mount-path PATH] [--use-fake]
//
// Flag defaults come from the environment (WEATHER_TRANSPORT, WEATHER_HOST,
// WEATHER_PORT, WEATHER_MOUNT_PATH, ...), optionally loaded from a .env file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/weather-mcp/weather/forecast"
	"github.com/weather-mcp/weather/internal/config"
	"github.com/weather-mcp/weather/internal/fake"
	"github.com/weather-mcp/weather/openmeteo"
	"github.com/weather-mcp/weather/report"
	"github.com/weather-mcp/weather/weatherserver"
)

const serverName = "weather"

func main() {
	// Ensure environment variables are loaded
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "weather: loading .env: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], loadConfig, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		var invalid *config.ErrInvalidEnvVar
		if errors.As(err, &invalid) {
			fmt.Fprintf(os.Stderr, "weather: %v\n", err)
			os.Exit(2)
		}
		slog.Error("weather server failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and configures the global logger.
// Stdout belongs to the stdio transport, so logs go to stderr.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	return cfg, nil
}

type options struct {
	version   bool
	transport string
	host      string
	port      int
	mountPath string
	useFake   bool
}

// parseArgs parses the command line without consulting the environment, so
// that --version works even when the configuration is invalid. It also
// returns the names of the flags given explicitly.
func parseArgs(args []string, output io.Writer) (options, map[string]bool, error) {
	var opts options
	flags := flag.NewFlagSet(serverName, flag.ContinueOnError)
	flags.SetOutput(output)
	flags.BoolVar(&opts.version, "version", false, "print the version and exit")
	flags.StringVar(&opts.transport, "transport", "", "transport to use: stdio, streamable-http or sse (default $WEATHER_TRANSPORT or streamable-http)")
	flags.StringVar(&opts.host, "host", "", "host to bind the HTTP server to (default $WEATHER_HOST or 127.0.0.1)")
	flags.IntVar(&opts.port, "port", 0, "port to bind the HTTP server to (default $WEATHER_PORT or 8000)")
	flags.StringVar(&opts.mountPath, "mount-path", "", "mount path for HTTP transports (default $WEATHER_MOUNT_PATH or /mcp)")
	flags.BoolVar(&opts.useFake, "use-fake", false, "serve canned forecasts instead of calling Open-Meteo")

	if len(args) > 0 && args[0] == "run" {
		args = args[1:]
	}
	if err := flags.Parse(args); err != nil {
		return opts, nil, err
	}
	if rest := flags.Args(); len(rest) > 0 && !(len(rest) == 1 && rest[0] == "run") {
		return opts, nil, fmt.Errorf("unexpected arguments %q (the only command is \"run\")", rest)
	}

	explicit := make(map[string]bool)
	flags.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	return opts, explicit, nil
}

// applyConfig fills the options not given on the command line from cfg.
func (o *options) applyConfig(cfg *config.Config, explicit map[string]bool) {
	if !explicit["transport"] {
		o.transport = string(cfg.Transport)
	}
	if !explicit["host"] {
		o.host = cfg.Host
	}
	if !explicit["port"] {
		o.port = cfg.Port
	}
	if !explicit["mount-path"] {
		o.mountPath = cfg.MountPath
	}
}

func run(ctx context.Context, args []string, load func() (*config.Config, error), stdout io.Writer) error {
	opts, explicit, err := parseArgs(args, stdout)
	if err != nil {
		return err
	}

	if opts.version {
		fmt.Fprintln(stdout, version())
		return nil
	}

	cfg, err := load()
	if err != nil {
		return err
	}
	opts.applyConfig(cfg, explicit)

	transport, err := weatherserver.ParseTransport(opts.transport)
	if err != nil {
		return err
	}

	ws := newServer(cfg, opts.useFake, slog.Default())
	return ws.Serve(ctx, transport, opts.host, opts.port, opts.mountPath)
}

// newServer wires the fetcher, retrier and report writer into a server.
func newServer(cfg *config.Config, useFake bool, logger *slog.Logger) *weatherserver.Server {
	var fetcher forecast.Fetcher
	if useFake {
		logger.Info("using canned forecasts")
		fetcher = fake.Fetcher{}
	} else {
		client := openmeteo.NewClient()
		client.SetBaseURL(cfg.OpenMeteoBaseURL)
		client.SetUserAgent(cfg.UserAgent)
		fetcher = client
	}

	retrier := forecast.NewRetrier(fetcher,
		forecast.WithMaxAttempts(cfg.MaxAttempts),
		forecast.WithInitialDelay(cfg.InitialDelay),
		forecast.WithLogger(logger),
	)
	writer := report.NewWriter(retrier, report.WithDir(cfg.DataDir))

	return weatherserver.NewServer(&mcp.Implementation{Name: serverName, Version: version()}, retrier).
		WithReportWriter(writer).
		WithLogger(logger)
}

func version() string {
	info, ok := debug.ReadBuildInfo()
	return versionFrom(info, ok)
}

// versionFrom reports the main module version. Plain "go build" binaries
// carry "(devel)", which says nothing about the release.
func versionFrom(info *debug.BuildInfo, ok bool) string {
	if !ok || info == nil {
		return "version unknown"
	}
	switch v := info.Main.Version; v {
	case "", "(devel)":
		return "version unknown"
	default:
		return v
	}
}
