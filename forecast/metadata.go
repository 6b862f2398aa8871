// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package forecast

import "time"

// Metadata describes one Retrier.Fetch call. It is created per call and not
// modified after it is returned. Pointer fields are nil when the response
// did not provide the value.
type Metadata struct {
	// Attempts is the number of fetches made, between 1 and the budget.
	Attempts int `json:"attempts"`

	// HourlyPresent reports whether the last attempt produced an hourly
	// block with at least one reading.
	HourlyPresent bool `json:"hourly_present"`

	// Timestamp is when the call finished, RFC 3339 in UTC.
	Timestamp string `json:"timestamp"`

	GenerationMs *float64 `json:"generation_ms"`
	Model        *string  `json:"model"`
	Timezone     *string  `json:"timezone"`
	UTCOffset    *int64   `json:"utc_offset"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Elevation    *float64 `json:"elevation"`
}

// collectMetadata builds the Metadata for a finished call. Each optional
// field is probed on its own, so a response implementing only some of the
// accessors still yields a partial record.
func collectMetadata(resp Response, attempts int, hourly bool, now time.Time) Metadata {
	m := Metadata{
		Attempts:      attempts,
		HourlyPresent: hourly,
		Timestamp:     now.UTC().Format(time.RFC3339Nano),
	}
	if resp == nil {
		return m
	}

	if a, ok := resp.(GenerationTimer); ok {
		m.GenerationMs = probe(a.GenerationTimeMilliseconds)
	}
	if a, ok := resp.(Modeler); ok {
		m.Model = probe(a.Model)
	}
	if a, ok := resp.(Timezoner); ok {
		m.Timezone = probe(a.Timezone)
	}
	if a, ok := resp.(UTCOffsetter); ok {
		m.UTCOffset = probe(a.UTCOffsetSeconds)
	}
	if a, ok := resp.(Locator); ok {
		if loc := probe(a.Coordinates); loc != nil {
			m.Latitude = &loc.Latitude
			m.Longitude = &loc.Longitude
		}
	}
	if a, ok := resp.(Elevator); ok {
		m.Elevation = probe(a.Elevation)
	}
	return m
}

// probe calls get and returns a pointer to its value, or nil when the value
// is missing or the accessor panics.
func probe[T any](get func() (T, bool)) (out *T) {
	defer func() {
		if recover() != nil {
			out = nil
		}
	}()
	v, ok := get()
	if !ok {
		return nil
	}
	return &v
}
