// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package openmeteo

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weather-mcp/weather/forecast"
)

const sampleBody = `{
  "latitude": 49.5,
  "longitude": 8.44,
  "generationtime_ms": 0.25,
  "utc_offset_seconds": 3600,
  "timezone": "Europe/Berlin",
  "timezone_abbreviation": "CET",
  "elevation": 97.0,
  "current_weather": {
    "time": 1609462800,
    "interval": 900,
    "temperature": 5.0,
    "windspeed": 10.0,
    "winddirection": 90,
    "weathercode": 1,
    "is_day": 1
  },
  "daily_units": {"temperature_2m_max": "°C"},
  "daily": {
    "time": [1609455600, 1609542000, 1609628400],
    "temperature_2m_max": [6.0, 7.0, 5.5],
    "temperature_2m_min": [0.0, -1.0, -2.0],
    "precipitation_sum": [0.0, 1.2, null]
  },
  "hourly": {
    "time": [1609459200, 1609462800],
    "temperature_2m": [1.0, 1.5],
    "precipitation": [0.0, 0.1],
    "wind_speed_10m": [3.0, 3.5],
    "relative_humidity_2m": [80, 81]
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClientWithHTTPClient(srv.Client())
	c.SetBaseURL(srv.URL + "/v1/forecast")
	return c
}

func TestClient_QueryParameters(t *testing.T) {
	var got url.Values
	var agent string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/forecast", r.URL.Path)
		got = r.URL.Query()
		agent = r.Header.Get("User-Agent")
		w.Write([]byte(sampleBody))
	})
	c.SetUserAgent("weather-test/0")

	_, err := c.Fetch(context.Background(), 49.48, -8.446, url.Values{"timezone": {"GMT"}})
	require.NoError(t, err)

	assert.Equal(t, "49.48", got.Get("latitude"))
	assert.Equal(t, "-8.446", got.Get("longitude"))
	assert.Equal(t, "true", got.Get("current_weather"))
	assert.Equal(t, DailyVariables, got["daily"])
	assert.Equal(t, HourlyVariables, got["hourly"])
	assert.Equal(t, "GMT", got.Get("timezone"), "overrides replace defaults")
	assert.Equal(t, "unixtime", got.Get("timeformat"))
	assert.Equal(t, "weather-test/0", agent)
}

func TestClient_DecodesSingleObject(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleBody))
	})

	responses, err := c.Fetch(context.Background(), 49.48, 8.446, nil)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	resp := responses[0]

	current := resp.Current()
	require.NotNil(t, current)
	assert.Equal(t, 4, current.Len(), "is_day is not a tracked variable")
	assert.Equal(t, int64(1609462800), current.Time())
	assert.Equal(t, int64(900), current.Interval())

	daily := resp.Daily()
	require.NotNil(t, daily)
	assert.Equal(t, 3, daily.Len())
	assert.Equal(t, int64(1609455600), daily.Time())
	assert.Equal(t, int64(86400), daily.Interval())

	hourly := resp.Hourly()
	require.NotNil(t, hourly)
	assert.Equal(t, 3, hourly.Len(), "relative_humidity_2m is ignored")
	assert.Equal(t, int64(3600), hourly.Interval())
	assert.True(t, forecast.HourlyPresent(resp))

	offset, ok := resp.(forecast.UTCOffsetter).UTCOffsetSeconds()
	assert.True(t, ok)
	assert.Equal(t, int64(3600), offset)

	loc, ok := resp.(forecast.Locator).Coordinates()
	assert.True(t, ok)
	assert.Equal(t, forecast.Location{Latitude: 49.5, Longitude: 8.44}, loc)

	_, isModeler := resp.(forecast.Modeler)
	assert.False(t, isModeler)
}

func TestClient_FormattedReport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleBody))
	})

	responses, err := c.Fetch(context.Background(), 49.48, 8.446, nil)
	require.NoError(t, err)

	want := "Now:\nTemperature: 5.0°C\nWind: 10.0 km/h at 90.0°\nConditions: Mainly clear\n---\n" +
		"Daily Forecast:\n" +
		"2021-01-01: High 6.0°C, Low 0.0°C, Precipitation: 0.0 mm\n" +
		"2021-01-02: High 7.0°C, Low -1.0°C, Precipitation: 1.2 mm\n" +
		"2021-01-03: High 5.5°C, Low -2.0°C, Precipitation: nan mm\n---\n" +
		"Hourly Forecast (next 24h):\n" +
		"2021-01-01 01:00: 1.0°C, Precip: 0.0 mm, Wind: 3.0 km/h\n" +
		"2021-01-01 02:00: 1.5°C, Precip: 0.1 mm, Wind: 3.5 km/h"
	assert.Equal(t, want, forecast.Format(responses[0]))
}

func TestDecode(t *testing.T) {
	t.Run("array of locations", func(t *testing.T) {
		body := "[" + sampleBody + "," + sampleBody + "]"
		responses, err := Decode([]byte(body))
		require.NoError(t, err)
		assert.Len(t, responses, 2)
	})

	t.Run("empty array", func(t *testing.T) {
		responses, err := Decode([]byte("[]"))
		require.NoError(t, err)
		assert.Empty(t, responses)
	})

	t.Run("null series elements become NaN", func(t *testing.T) {
		responses, err := Decode([]byte(`{"hourly": {"time": [0], "temperature_2m": [null]}}`))
		require.NoError(t, err)
		values, err := responses[0].Hourly().Reading(0).(forecast.BulkValues).ValuesSlice()
		require.NoError(t, err)
		require.Len(t, values, 1)
		assert.True(t, math.IsNaN(values[0]))
	})

	t.Run("null current values are omitted", func(t *testing.T) {
		responses, err := Decode([]byte(`{"current_weather": {"temperature": null, "windspeed": 4}}`))
		require.NoError(t, err)
		assert.Equal(t, 1, responses[0].Current().Len())
	})

	t.Run("absent blocks are nil", func(t *testing.T) {
		responses, err := Decode([]byte(`{"latitude": 1, "hourly": null}`))
		require.NoError(t, err)
		resp := responses[0]
		assert.Nil(t, resp.Current())
		assert.Nil(t, resp.Daily())
		assert.Nil(t, resp.Hourly())
		assert.False(t, forecast.HourlyPresent(resp))

		_, ok := resp.(forecast.Locator).Coordinates()
		assert.False(t, ok, "longitude missing")
		_, ok = resp.(forecast.Elevator).Elevation()
		assert.False(t, ok)
	})

	t.Run("hourly without variables counts as absent", func(t *testing.T) {
		responses, err := Decode([]byte(`{"hourly": {"time": []}}`))
		require.NoError(t, err)
		assert.False(t, forecast.HourlyPresent(responses[0]))
	})

	t.Run("single time step keeps default interval", func(t *testing.T) {
		responses, err := Decode([]byte(`{"daily": {"time": [100], "precipitation_sum": [1]}}`))
		require.NoError(t, err)
		assert.Equal(t, int64(86400), responses[0].Daily().Interval())
	})

	for _, body := range []string{"", "not json", `{"hourly": {"temperature_2m": "warm"}}`, `{"daily": {"time": ["2021-01-01"]}}`} {
		t.Run("invalid "+body, func(t *testing.T) {
			_, err := Decode([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestClient_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": true, "reason": "Latitude must be in range of -90 to 90°."}`))
	})

	_, err := c.Fetch(context.Background(), 91, 0, nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Latitude must be in range of -90 to 90°.", apiErr.Reason)
}

func TestClient_APIErrorPlainBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	})

	_, err := c.Fetch(context.Background(), 1, 2, nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "upstream unavailable", apiErr.Reason)
}

func TestClient_BadBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>"))
	})

	_, err := c.Fetch(context.Background(), 1, 2, nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed to decode response"))
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := NewClientWithHTTPClient(srv.Client())
	c.SetBaseURL(srv.URL)
	srv.Close()

	_, err := c.Fetch(context.Background(), 1, 2, nil)

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, "request", netErr.Operation)
}

func TestClient_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleBody))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Fetch(ctx, 1, 2, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_WithRetrier(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Write([]byte(`{"current_weather": {"temperature": 1}}`))
			return
		}
		w.Write([]byte(sampleBody))
	})
	r := forecast.NewRetrier(c, forecast.WithInitialDelay(0))

	resp, meta := r.Fetch(context.Background(), 49.48, 8.446)

	require.NotNil(t, resp)
	assert.Equal(t, 2, meta.Attempts)
	assert.True(t, meta.HourlyPresent)
	require.NotNil(t, meta.Timezone)
	assert.Equal(t, "Europe/Berlin", *meta.Timezone)
	assert.Nil(t, meta.Model)
}
