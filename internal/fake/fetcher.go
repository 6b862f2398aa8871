// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

// Package fake provides a canned forecast source for running the server
// without network access.
package fake

import (
	"context"
	"encoding/json"
	"net/url"
	"slices"

	"github.com/weather-mcp/weather/forecast"
	"github.com/weather-mcp/weather/openmeteo"
)

// Fetcher answers every request with the same plausible forecast: 5.0°C and
// mainly clear now, one day with a 6.0°C high and 24 hours at 1.0°C. The
// body goes through the Open-Meteo decoder, so the server exercises the
// same code path as in production.
type Fetcher struct{}

var _ forecast.Fetcher = Fetcher{}

// Fetch returns the canned forecast located at the requested coordinates.
func (Fetcher) Fetch(_ context.Context, latitude, longitude float64, _ url.Values) ([]forecast.Response, error) {
	body, err := Body(latitude, longitude)
	if err != nil {
		return nil, err
	}
	return openmeteo.Decode(body)
}

// Body returns the canned API body for a location.
func Body(latitude, longitude float64) ([]byte, error) {
	return json.Marshal(map[string]any{
		"latitude":           latitude,
		"longitude":          longitude,
		"generationtime_ms":  0.1,
		"utc_offset_seconds": 0,
		"timezone":           "GMT",
		"elevation":          0.0,
		"current_weather": map[string]any{
			"time":        1609459200,
			"interval":    900,
			"temperature": 5.0,
			"weathercode": 1,
		},
		"daily": map[string]any{
			"time":               []int64{1609459200},
			"temperature_2m_max": []float64{6.0},
		},
		"hourly": map[string]any{
			"time":           hourlyTimes(1609459200, 24),
			"temperature_2m": slices.Repeat([]float64{1.0}, 24),
		},
	})
}

func hourlyTimes(start int64, n int) []int64 {
	times := make([]int64, n)
	for i := range times {
		times[i] = start + int64(i)*3600
	}
	return times
}
