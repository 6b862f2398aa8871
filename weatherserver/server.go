// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

// Package weatherserver exposes the forecast tools over the Model Context
// Protocol.
package weatherserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/weather-mcp/weather/forecast"
	"github.com/weather-mcp/weather/report"
)

// Server registers the weather tools on an MCP server.
//
// Server holds only configuration and is safe for concurrent use. Every
// tool call is independent: it runs its own fetch and shares no mutable
// state with other calls.
type Server struct {
	impl    *mcp.Implementation
	retrier *forecast.Retrier
	writer  *report.Writer
	logger  *slog.Logger
	newID   func() string
}

// NewServer creates a server answering get_forecast through r.
//
// Neither argument may be nil.
func NewServer(impl *mcp.Implementation, r *forecast.Retrier) *Server {
	if impl == nil {
		panic("weatherserver: nil Implementation")
	}
	if r == nil {
		panic("weatherserver: nil Retrier")
	}
	return &Server{
		impl:    impl,
		retrier: r,
		logger:  slog.Default(),
		newID:   uuid.NewString,
	}
}

// WithReportWriter enables the save_raw_forecast tool, which saves reports
// through w.
//
// Returns the receiver for chaining.
func (s *Server) WithReportWriter(w *report.Writer) *Server {
	s.writer = w
	return s
}

// WithLogger sets the logger for tool calls and for the MCP server itself.
//
// Returns the receiver for chaining.
func (s *Server) WithLogger(l *slog.Logger) *Server {
	if l != nil {
		s.logger = l
	}
	return s
}

// MCPServer returns a new *mcp.Server with the weather tools registered.
func (s *Server) MCPServer() *mcp.Server {
	srv := mcp.NewServer(s.impl, &mcp.ServerOptions{Logger: s.logger})
	mcp.AddTool(srv, &mcp.Tool{
		Name:        GetForecastTool,
		Description: "Get the weather forecast for a location: current conditions, the next three days and the next 24 hours.",
	}, s.getForecast)
	if s.writer != nil {
		mcp.AddTool(srv, &mcp.Tool{
			Name:        SaveRawForecastTool,
			Description: "Fetch the forecast for a location and save it with a metadata header to a local text file. Returns the file path.",
		}, s.saveRawForecast)
	}
	return srv
}

// Run serves a single session on the given transport (e.g., stdio).
// For multi-client HTTP support, use [NewStreamableHTTPHandler] or
// [NewSSEHandler] instead.
func (s *Server) Run(ctx context.Context, t mcp.Transport) error {
	return s.MCPServer().Run(ctx, t)
}

// NewStreamableHTTPHandler returns an [mcp.StreamableHTTPHandler] serving
// the weather tools. It mirrors [mcp.NewStreamableHTTPHandler].
//
//	handler := weatherserver.NewStreamableHTTPHandler(ws, nil)
//	http.ListenAndServe(":8000", handler)
func NewStreamableHTTPHandler(ws *Server, opts *mcp.StreamableHTTPOptions) *mcp.StreamableHTTPHandler {
	if ws == nil {
		panic("weatherserver: nil Server")
	}
	if opts == nil {
		opts = &mcp.StreamableHTTPOptions{}
	}
	if opts.Logger == nil {
		opts.Logger = ws.logger
	}
	srv := ws.MCPServer()
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return srv }, opts)
}

// NewSSEHandler returns an [mcp.SSEHandler] serving the weather tools over
// the legacy HTTP+SSE transport.
func NewSSEHandler(ws *Server, opts *mcp.SSEOptions) *mcp.SSEHandler {
	if ws == nil {
		panic("weatherserver: nil Server")
	}
	srv := ws.MCPServer()
	return mcp.NewSSEHandler(func(*http.Request) *mcp.Server { return srv }, opts)
}
