// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package weatherserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"
)

// Transport selects how the server is exposed.
type Transport string

const (
	Stdio          Transport = "stdio"
	StreamableHTTP Transport = "streamable-http"
	SSE            Transport = "sse"
)

// DefaultMountPath is where HTTP transports serve the MCP endpoint.
const DefaultMountPath = "/mcp"

const shutdownTimeout = 5 * time.Second

// ParseTransport parses a transport name. Matching is case-insensitive.
func ParseTransport(s string) (Transport, error) {
	switch t := Transport(strings.ToLower(strings.TrimSpace(s))); t {
	case Stdio, StreamableHTTP, SSE:
		return t, nil
	}
	return "", fmt.Errorf("weatherserver: unknown transport %q (want %s, %s or %s)", s, Stdio, StreamableHTTP, SSE)
}

// Handler returns the HTTP handler for an HTTP transport: the MCP endpoint
// at mountPath and a JSON health check at /health.
func (s *Server) Handler(t Transport, mountPath string) (http.Handler, error) {
	var mcpHandler http.Handler
	switch t {
	case StreamableHTTP:
		mcpHandler = NewStreamableHTTPHandler(s, nil)
	case SSE:
		mcpHandler = NewSSEHandler(s, nil)
	default:
		return nil, fmt.Errorf("weatherserver: transport %q is not served over HTTP", t)
	}

	mountPath = normalizeMountPath(mountPath)
	mux := http.NewServeMux()
	mux.Handle(mountPath, mcpHandler)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":       "ok",
			"server":       s.impl.Name,
			"version":      s.impl.Version,
			"transport":    string(t),
			"mcp_endpoint": mountPath,
		})
	})
	return mux, nil
}

// Serve exposes the server on transport t and blocks until ctx is done or
// serving fails. host, port and mountPath apply to HTTP transports only.
// HTTP servers are shut down gracefully when ctx ends.
func (s *Server) Serve(ctx context.Context, t Transport, host string, port int, mountPath string) error {
	if t == Stdio {
		s.logger.InfoContext(ctx, "serving MCP", "transport", t)
		return s.Run(ctx, &mcp.StdioTransport{})
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("weatherserver: listen: %w", err)
	}
	return s.ServeListener(ctx, ln, t, mountPath)
}

// ServeListener serves an HTTP transport on ln until ctx is done. It closes
// ln.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener, t Transport, mountPath string) error {
	handler, err := s.Handler(t, mountPath)
	if err != nil {
		ln.Close()
		return err
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.InfoContext(ctx, "serving MCP",
		"transport", t,
		"addr", ln.Addr().String(),
		"mount_path", normalizeMountPath(mountPath),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("weatherserver: serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("weatherserver: shutdown: %w", err)
		}
		s.logger.Info("server stopped")
		return nil
	})
	return g.Wait()
}

func normalizeMountPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return DefaultMountPath
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
