// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package forecast

import (
	"context"
	"errors"
	"net/url"
)

// ---------------------------------------------------------------------------
// In-memory response doubles
// ---------------------------------------------------------------------------

type fakeReading struct {
	variable Variable
	agg      Aggregation
	value    float64
	values   []float64
}

func (r fakeReading) Variable() Variable              { return r.variable }
func (r fakeReading) Aggregation() Aggregation        { return r.agg }
func (r fakeReading) Value() float64                  { return r.value }
func (r fakeReading) ValuesSlice() ([]float64, error) { return r.values, nil }

// indexedReading only supports element-by-element access.
type indexedReading struct {
	variable Variable
	agg      Aggregation
	values   []float64
}

func (r indexedReading) Variable() Variable       { return r.variable }
func (r indexedReading) Aggregation() Aggregation { return r.agg }
func (r indexedReading) Value() float64           { return 0 }
func (r indexedReading) ValuesLength() int        { return len(r.values) }
func (r indexedReading) ValuesAt(i int) (float64, error) {
	return r.values[i], nil
}

// brokenBulkReading fails its bulk export but serves indexed access.
type brokenBulkReading struct {
	indexedReading
}

func (r brokenBulkReading) ValuesSlice() ([]float64, error) {
	return nil, errors.New("bulk export unsupported")
}

// brokenReading fails both representations.
type brokenReading struct {
	variable Variable
	agg      Aggregation
}

func (r brokenReading) Variable() Variable       { return r.variable }
func (r brokenReading) Aggregation() Aggregation { return r.agg }
func (r brokenReading) Value() float64           { return 0 }
func (r brokenReading) ValuesSlice() ([]float64, error) {
	return nil, errors.New("bulk export unsupported")
}
func (r brokenReading) ValuesLength() int { return 3 }
func (r brokenReading) ValuesAt(int) (float64, error) {
	return 0, errors.New("index out of range")
}

type fakeBlock struct {
	readings []Reading
	time     int64
	interval int64
}

func (b *fakeBlock) Len() int              { return len(b.readings) }
func (b *fakeBlock) Reading(i int) Reading { return b.readings[i] }
func (b *fakeBlock) Time() int64           { return b.time }
func (b *fakeBlock) Interval() int64       { return b.interval }

// panickingBlock stands in for a malformed payload.
type panickingBlock struct{}

func (panickingBlock) Len() int            { panic("corrupt block") }
func (panickingBlock) Reading(int) Reading { panic("corrupt block") }
func (panickingBlock) Time() int64         { panic("corrupt block") }
func (panickingBlock) Interval() int64     { panic("corrupt block") }

// fakeResponse implements Response and UTCOffsetter only.
type fakeResponse struct {
	current, daily, hourly Block
	utcOffset              int64
}

func (r *fakeResponse) Current() Block                  { return r.current }
func (r *fakeResponse) Daily() Block                    { return r.daily }
func (r *fakeResponse) Hourly() Block                   { return r.hourly }
func (r *fakeResponse) UTCOffsetSeconds() (int64, bool) { return r.utcOffset, true }

// fullResponse adds every optional accessor.
type fullResponse struct {
	fakeResponse
}

func (r *fullResponse) GenerationTimeMilliseconds() (float64, bool) { return 0.5, true }
func (r *fullResponse) Model() (string, bool)                       { return "best_match", true }
func (r *fullResponse) Timezone() (string, bool)                    { return "Europe/Berlin", true }
func (r *fullResponse) Coordinates() (Location, bool) {
	return Location{Latitude: 49.5, Longitude: 8.44}, true
}
func (r *fullResponse) Elevation() (float64, bool) { return 97, true }

// partialResponse has a missing model and a panicking elevation accessor.
type partialResponse struct {
	fakeResponse
}

func (r *partialResponse) Model() (string, bool)    { return "", false }
func (r *partialResponse) Timezone() (string, bool) { return "GMT", true }
func (r *partialResponse) Elevation() (float64, bool) {
	panic("elevation not decoded")
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

const (
	jan1    = 1609459200 // 2021-01-01T00:00:00Z
	day     = 86400
	hour    = 3600
	hoursIn = 24
)

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func sampleCurrent() *fakeBlock {
	return &fakeBlock{readings: []Reading{
		fakeReading{variable: Temperature, value: 5.0},
		fakeReading{variable: WeatherCode, value: 1},
		fakeReading{variable: WindSpeed, value: 10.0},
		fakeReading{variable: WindDirection, value: 90.0},
	}}
}

func sampleDaily() *fakeBlock {
	return &fakeBlock{
		readings: []Reading{
			fakeReading{variable: Temperature, agg: Maximum, values: []float64{6.0, 7.0, 5.5}},
			fakeReading{variable: Temperature, agg: Minimum, values: []float64{0.0, -1.0, -2.0}},
			fakeReading{variable: Precipitation, values: []float64{0.0, 1.2, 0.0}},
		},
		time:     jan1,
		interval: day,
	}
}

func sampleHourly() *fakeBlock {
	return &fakeBlock{
		readings: []Reading{
			fakeReading{variable: Temperature, values: repeat(1.0, hoursIn)},
			fakeReading{variable: Precipitation, values: repeat(0.0, hoursIn)},
			fakeReading{variable: WindSpeed, values: repeat(3.0, hoursIn)},
		},
		time:     jan1,
		interval: hour,
	}
}

func sampleResponse() *fakeResponse {
	return &fakeResponse{current: sampleCurrent(), daily: sampleDaily(), hourly: sampleHourly()}
}

func noHourlyResponse() *fakeResponse {
	return &fakeResponse{
		current: sampleCurrent(),
		daily:   sampleDaily(),
		hourly:  &fakeBlock{time: jan1, interval: hour},
	}
}

// sequenceFetcher returns one scripted result per call.
type sequenceFetcher struct {
	results []fetchResult
	calls   int
}

type fetchResult struct {
	responses []Response
	err       error
}

func (f *sequenceFetcher) Fetch(_ context.Context, _, _ float64, _ url.Values) ([]Response, error) {
	i := f.calls
	f.calls++
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	return f.results[i].responses, f.results[i].err
}

func respond(r Response) fetchResult { return fetchResult{responses: []Response{r}} }
