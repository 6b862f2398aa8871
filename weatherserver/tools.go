// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package weatherserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/weather-mcp/weather/forecast"
	"github.com/weather-mcp/weather/report"
)

// Tool names.
const (
	GetForecastTool     = "get_forecast"
	SaveRawForecastTool = "save_raw_forecast"
)

// LocationInput is the argument of both tools.
type LocationInput struct {
	Latitude  float64 `json:"latitude" jsonschema:"latitude of the location in decimal degrees"`
	Longitude float64 `json:"longitude" jsonschema:"longitude of the location in decimal degrees"`
}

func (s *Server) getForecast(ctx context.Context, _ *mcp.CallToolRequest, in LocationInput) (*mcp.CallToolResult, any, error) {
	ctx, log := s.startCall(ctx, GetForecastTool, in)
	start := time.Now()

	resp, meta := s.retrier.Fetch(ctx, in.Latitude, in.Longitude)
	if resp == nil {
		log.WarnContext(ctx, "no forecast obtained", "attempts", meta.Attempts)
		return textResult(forecast.Unavailable), nil, nil
	}

	log.InfoContext(ctx, "forecast served",
		"attempts", meta.Attempts,
		"hourly_present", meta.HourlyPresent,
		"duration", time.Since(start),
	)
	return textResult(forecast.Format(resp)), nil, nil
}

func (s *Server) saveRawForecast(ctx context.Context, _ *mcp.CallToolRequest, in LocationInput) (*mcp.CallToolResult, any, error) {
	ctx, log := s.startCall(ctx, SaveRawForecastTool, in)

	path, err := s.writer.Save(ctx, in.Latitude, in.Longitude)
	switch {
	case errors.Is(err, report.ErrNoForecast):
		log.WarnContext(ctx, "no forecast obtained")
		return textResult(forecast.Unavailable), nil, nil
	case err != nil:
		log.ErrorContext(ctx, "saving forecast failed", "error", err)
		return nil, nil, fmt.Errorf("save forecast: %w", err)
	}

	log.InfoContext(ctx, "forecast saved", "path", path)
	return textResult(path), nil, nil
}

// startCall assigns a call ID and returns a context whose logger carries it,
// so retry records can be matched to their tool call.
func (s *Server) startCall(ctx context.Context, tool string, in LocationInput) (context.Context, *slog.Logger) {
	log := s.logger.With(
		"call_id", s.newID(),
		"tool", tool,
		"latitude", in.Latitude,
		"longitude", in.Longitude,
	)
	log.DebugContext(ctx, "tool call started")
	return forecast.ContextWithLogger(ctx, log), log
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
