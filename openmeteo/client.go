// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

// Package openmeteo fetches forecasts from the Open-Meteo forecast API and
// exposes them as [forecast.Response] values.
package openmeteo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/weather-mcp/weather/forecast"
)

const (
	// DefaultBaseURL is the Open-Meteo forecast endpoint.
	DefaultBaseURL = "https://api.open-meteo.com/v1/forecast"

	// DefaultUserAgent identifies this client to the API.
	DefaultUserAgent = "weather-mcp/1.0"
)

// Variables requested for each block. The set is fixed.
var (
	DailyVariables  = []string{"temperature_2m_max", "temperature_2m_min", "precipitation_sum"}
	HourlyVariables = []string{"temperature_2m", "precipitation", "wind_speed_10m"}
)

// Client issues forecast requests. It implements [forecast.Fetcher].
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

var _ forecast.Fetcher = (*Client)(nil)

// NewClient creates a client for the public Open-Meteo API.
func NewClient() *Client {
	return NewClientWithHTTPClient(&http.Client{Timeout: 30 * time.Second})
}

// NewClientWithHTTPClient creates a client using httpClient for requests.
func NewClientWithHTTPClient(httpClient *http.Client) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
	}
}

// SetBaseURL sets the forecast endpoint (useful for testing).
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// SetUserAgent sets the User-Agent header sent with each request.
func (c *Client) SetUserAgent(userAgent string) {
	c.userAgent = userAgent
}

// DefaultParams returns the query parameters of a forecast request for
// the given location: current weather, daily temperature extremes and
// precipitation, hourly temperature, precipitation and wind speed, with the
// timezone resolved from the location.
func DefaultParams(latitude, longitude float64) url.Values {
	q := url.Values{}
	q.Set("latitude", formatFloat(latitude))
	q.Set("longitude", formatFloat(longitude))
	q.Set("current_weather", "true")
	q["daily"] = DailyVariables
	q["hourly"] = HourlyVariables
	q.Set("timezone", "auto")
	q.Set("timeformat", "unixtime")
	return q
}

// Fetch performs one forecast request. overrides replace the default
// parameters key by key. It returns one response per location in the reply,
// or an error on any transport, status or decoding failure.
func (c *Client) Fetch(ctx context.Context, latitude, longitude float64, overrides url.Values) ([]forecast.Response, error) {
	reqURL, err := c.buildURL(latitude, longitude, overrides)
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Operation: "request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Operation: "read body", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError(resp.StatusCode, body)
	}

	responses, err := Decode(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return responses, nil
}

func (c *Client) buildURL(latitude, longitude float64, overrides url.Values) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}

	q := DefaultParams(latitude, longitude)
	for key, values := range overrides {
		q[key] = values
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
