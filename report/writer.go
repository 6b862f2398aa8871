// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

// Package report persists formatted forecasts as text files with a
// metadata header.
package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/weather-mcp/weather/forecast"
)

// DefaultDir is the directory reports are written to.
const DefaultDir = "data"

// ErrNoForecast is returned by Save when no response could be obtained.
// Nothing is written in that case.
var ErrNoForecast = errors.New("report: no forecast obtained")

// Writer fetches a forecast and saves it to a new file.
type Writer struct {
	retrier *forecast.Retrier
	dir     string
	now     func() time.Time
}

// Option configures a Writer.
type Option func(*Writer)

// WithDir sets the output directory. It is created on first save.
func WithDir(dir string) Option {
	return func(w *Writer) {
		if dir != "" {
			w.dir = dir
		}
	}
}

// WithClock sets the clock used for file names.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) {
		if now != nil {
			w.now = now
		}
	}
}

// NewWriter returns a Writer that fetches through r.
func NewWriter(r *forecast.Retrier, opts ...Option) *Writer {
	if r == nil {
		panic("report: nil Retrier")
	}
	w := &Writer{retrier: r, dir: DefaultDir, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Save fetches the forecast for a location and writes it, preceded by its
// metadata header, to a new file in the output directory. It returns the
// file's path.
//
// If no response could be obtained Save returns ErrNoForecast and leaves
// the filesystem untouched. Directory and write failures are returned.
func (w *Writer) Save(ctx context.Context, latitude, longitude float64) (string, error) {
	resp, meta := w.retrier.Fetch(ctx, latitude, longitude)
	if resp == nil {
		return "", ErrNoForecast
	}
	body := forecast.Format(resp)

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create directory: %w", err)
	}
	path := filepath.Join(w.dir, FileName(latitude, longitude, w.now()))
	if err := os.WriteFile(path, []byte(Header(meta)+body), 0o644); err != nil {
		return "", fmt.Errorf("report: write %s: %w", path, err)
	}
	return path, nil
}

// FileName returns the report file name for a location at t:
// forecast_{lat}_{lon}_{YYYYMMDD_HHMMSS}.txt, with "." written as "p" and
// "-" as "m" in the coordinates and t taken in UTC.
func FileName(latitude, longitude float64, t time.Time) string {
	return fmt.Sprintf("forecast_%s_%s_%s.txt",
		sanitize(latitude), sanitize(longitude), t.UTC().Format("20060102_150405"))
}

var coordinateReplacer = strings.NewReplacer(".", "p", "-", "m")

func sanitize(f float64) string {
	return coordinateReplacer.Replace(forecast.FormatValue(f))
}

// Header renders the metadata block that precedes a saved report, ending
// with the "---" separator line and a newline. Missing values are written
// as "None" and booleans as "True" or "False", the format earlier reports
// used.
func Header(m forecast.Metadata) string {
	lines := []string{
		"Metadata:",
		"Timestamp: " + m.Timestamp,
		"Attempts: " + strconv.Itoa(m.Attempts),
		"Hourly present: " + formatBool(m.HourlyPresent),
		"Model: " + formatString(m.Model),
		"GenerationTimeMs: " + formatFloat(m.GenerationMs),
		"Timezone: " + formatString(m.Timezone),
		"UTC offset: " + formatInt(m.UTCOffset),
		"Latitude: " + formatFloat(m.Latitude),
		"Longitude: " + formatFloat(m.Longitude),
		"Elevation: " + formatFloat(m.Elevation),
		"---",
	}
	return strings.Join(lines, "\n") + "\n"
}

const none = "None"

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func formatString(s *string) string {
	if s == nil {
		return none
	}
	return *s
}

func formatFloat(f *float64) string {
	if f == nil {
		return none
	}
	return forecast.FormatValue(*f)
}

func formatInt(i *int64) string {
	if i == nil {
		return none
	}
	return strconv.FormatInt(*i, 10)
}
