// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package openmeteo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/weather-mcp/weather/forecast"
)

// ---------------------------------------------------------------------------
// Variable names
// ---------------------------------------------------------------------------

type variableKind struct {
	variable    forecast.Variable
	aggregation forecast.Aggregation
}

// seriesVariables maps daily and hourly series names to reading kinds.
// Names not listed here are ignored.
var seriesVariables = map[string]variableKind{
	"temperature_2m":     {forecast.Temperature, forecast.AggregationNone},
	"temperature_2m_max": {forecast.Temperature, forecast.Maximum},
	"temperature_2m_min": {forecast.Temperature, forecast.Minimum},
	"precipitation":      {forecast.Precipitation, forecast.AggregationNone},
	"precipitation_sum":  {forecast.Precipitation, forecast.AggregationNone},
	"wind_speed_10m":     {forecast.WindSpeed, forecast.AggregationNone},
	"windspeed_10m":      {forecast.WindSpeed, forecast.AggregationNone},
	"wind_direction_10m": {forecast.WindDirection, forecast.AggregationNone},
	"winddirection_10m":  {forecast.WindDirection, forecast.AggregationNone},
	"weather_code":       {forecast.WeatherCode, forecast.AggregationNone},
	"weathercode":        {forecast.WeatherCode, forecast.AggregationNone},
}

// currentVariables maps the scalar fields of "current_weather" (and of the
// newer "current" object) to reading kinds.
var currentVariables = map[string]forecast.Variable{
	"temperature":        forecast.Temperature,
	"temperature_2m":     forecast.Temperature,
	"windspeed":          forecast.WindSpeed,
	"wind_speed_10m":     forecast.WindSpeed,
	"winddirection":      forecast.WindDirection,
	"wind_direction_10m": forecast.WindDirection,
	"weathercode":        forecast.WeatherCode,
	"weather_code":       forecast.WeatherCode,
	"precipitation":      forecast.Precipitation,
}

const (
	defaultHourlyInterval = 3600
	defaultDailyInterval  = 86400
)

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

type payload struct {
	Latitude         *float64                   `json:"latitude"`
	Longitude        *float64                   `json:"longitude"`
	GenerationTimeMs *float64                   `json:"generationtime_ms"`
	UTCOffsetSeconds *int64                     `json:"utc_offset_seconds"`
	Timezone         *string                    `json:"timezone"`
	Elevation        *float64                   `json:"elevation"`
	CurrentWeather   map[string]json.RawMessage `json:"current_weather"`
	Current          map[string]json.RawMessage `json:"current"`
	Hourly           map[string]json.RawMessage `json:"hourly"`
	Daily            map[string]json.RawMessage `json:"daily"`
}

// Decode parses a forecast body. The API answers with a single object for
// one location and an array for several; both yield one Response per
// location. Null series elements decode as NaN.
func Decode(body []byte) ([]forecast.Response, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty body")
	}

	var payloads []payload
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &payloads); err != nil {
			return nil, err
		}
	} else {
		var p payload
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return nil, err
		}
		payloads = []payload{p}
	}

	out := make([]forecast.Response, 0, len(payloads))
	for i, p := range payloads {
		r, err := newResponse(p)
		if err != nil {
			return nil, fmt.Errorf("location %d: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func newResponse(p payload) (*Response, error) {
	r := &Response{payload: p}

	current := p.CurrentWeather
	if current == nil {
		current = p.Current
	}
	if current != nil {
		b, err := decodeCurrent(current)
		if err != nil {
			return nil, fmt.Errorf("current: %w", err)
		}
		r.current = b
	}

	if p.Daily != nil {
		b, err := decodeSeries(p.Daily, defaultDailyInterval)
		if err != nil {
			return nil, fmt.Errorf("daily: %w", err)
		}
		r.daily = b
	}

	if p.Hourly != nil {
		b, err := decodeSeries(p.Hourly, defaultHourlyInterval)
		if err != nil {
			return nil, fmt.Errorf("hourly: %w", err)
		}
		r.hourly = b
	}
	return r, nil
}

func decodeCurrent(fields map[string]json.RawMessage) (*Block, error) {
	b := &Block{}
	if raw, ok := fields["time"]; ok {
		if err := json.Unmarshal(raw, &b.time); err != nil {
			return nil, fmt.Errorf("time: %w", err)
		}
	}
	if raw, ok := fields["interval"]; ok {
		if err := json.Unmarshal(raw, &b.interval); err != nil {
			return nil, fmt.Errorf("interval: %w", err)
		}
	}

	for _, name := range sortedKeys(fields) {
		variable, ok := currentVariables[name]
		if !ok {
			continue
		}
		var v *float64
		if err := json.Unmarshal(fields[name], &v); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if v == nil {
			continue
		}
		b.readings = append(b.readings, &Reading{variable: variable, value: *v})
	}
	return b, nil
}

func decodeSeries(fields map[string]json.RawMessage, defaultInterval int64) (*Block, error) {
	b := &Block{interval: defaultInterval}
	if raw, ok := fields["time"]; ok {
		var times []int64
		if err := json.Unmarshal(raw, &times); err != nil {
			return nil, fmt.Errorf("time: %w", err)
		}
		if len(times) > 0 {
			b.time = times[0]
		}
		if len(times) > 1 {
			b.interval = times[1] - times[0]
		}
	}

	for _, name := range sortedKeys(fields) {
		kind, ok := seriesVariables[name]
		if !ok {
			continue
		}
		var raw []*float64
		if err := json.Unmarshal(fields[name], &raw); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		values := make([]float64, len(raw))
		for i, v := range raw {
			if v == nil {
				values[i] = math.NaN()
				continue
			}
			values[i] = *v
		}
		b.readings = append(b.readings, &Reading{
			variable:    kind.variable,
			aggregation: kind.aggregation,
			values:      values,
		})
	}
	return b, nil
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ---------------------------------------------------------------------------
// forecast model
// ---------------------------------------------------------------------------

// Response is a decoded forecast for one location.
type Response struct {
	payload payload
	current *Block
	daily   *Block
	hourly  *Block
}

var (
	_ forecast.Response        = (*Response)(nil)
	_ forecast.UTCOffsetter    = (*Response)(nil)
	_ forecast.GenerationTimer = (*Response)(nil)
	_ forecast.Timezoner       = (*Response)(nil)
	_ forecast.Locator         = (*Response)(nil)
	_ forecast.Elevator        = (*Response)(nil)
)

func (r *Response) Current() forecast.Block { return blockOrNil(r.current) }
func (r *Response) Daily() forecast.Block   { return blockOrNil(r.daily) }
func (r *Response) Hourly() forecast.Block  { return blockOrNil(r.hourly) }

// blockOrNil keeps an absent block a nil interface.
func blockOrNil(b *Block) forecast.Block {
	if b == nil {
		return nil
	}
	return b
}

func (r *Response) UTCOffsetSeconds() (int64, bool) {
	return deref(r.payload.UTCOffsetSeconds)
}

func (r *Response) GenerationTimeMilliseconds() (float64, bool) {
	return deref(r.payload.GenerationTimeMs)
}

func (r *Response) Timezone() (string, bool) {
	return deref(r.payload.Timezone)
}

// Coordinates returns the grid cell the API resolved the request to, which
// may differ slightly from the requested location.
func (r *Response) Coordinates() (forecast.Location, bool) {
	if r.payload.Latitude == nil || r.payload.Longitude == nil {
		return forecast.Location{}, false
	}
	return forecast.Location{Latitude: *r.payload.Latitude, Longitude: *r.payload.Longitude}, true
}

func (r *Response) Elevation() (float64, bool) {
	return deref(r.payload.Elevation)
}

func deref[T any](p *T) (T, bool) {
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}

// Block is a group of readings on one time axis.
type Block struct {
	readings []*Reading
	time     int64
	interval int64
}

func (b *Block) Len() int                       { return len(b.readings) }
func (b *Block) Reading(i int) forecast.Reading { return b.readings[i] }
func (b *Block) Time() int64                    { return b.time }
func (b *Block) Interval() int64                { return b.interval }

// Reading is a scalar (current block) or a series (daily and hourly
// blocks).
type Reading struct {
	variable    forecast.Variable
	aggregation forecast.Aggregation
	value       float64
	values      []float64
}

var _ forecast.BulkValues = (*Reading)(nil)

func (r *Reading) Variable() forecast.Variable       { return r.variable }
func (r *Reading) Aggregation() forecast.Aggregation { return r.aggregation }
func (r *Reading) Value() float64                    { return r.value }

// ValuesSlice returns a copy of the series.
func (r *Reading) ValuesSlice() ([]float64, error) {
	return slices.Clone(r.values), nil
}
