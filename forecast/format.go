// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package forecast

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Unavailable is returned to callers in place of a report when no response
// could be obtained.
const Unavailable = "Unable to fetch forecast data for this location."

const (
	sectionSeparator = "\n---\n"

	currentPlaceholder = "Current weather: not available."
	dailyPlaceholder   = "Daily forecast: not available."
	hourlyPlaceholder  = "Hourly forecast: not available."

	maxDailyRows  = 3
	maxHourlyRows = 24

	missing = "N/A"
	absent  = "None"
)

var (
	errNoReadings  = errors.New("forecast: block absent or empty")
	errInvalidCode = errors.New("forecast: weather code is not a finite number")
)

// Format renders resp as a three-section report (current, daily, hourly)
// joined by "\n---\n". A section that cannot be extracted is replaced by its
// placeholder without affecting the others. A nil resp yields Unavailable.
func Format(resp Response) string {
	if resp == nil {
		return Unavailable
	}
	parts := []string{
		section(currentPlaceholder, func() (string, error) { return formatCurrent(resp) }),
		section(dailyPlaceholder, func() (string, error) { return formatDaily(resp) }),
		section(hourlyPlaceholder, func() (string, error) { return formatHourly(resp) }),
	}
	return strings.Join(parts, sectionSeparator)
}

// section runs render behind a failure boundary: an error or a panic from a
// malformed response yields placeholder.
func section(placeholder string, render func() (string, error)) (out string) {
	defer func() {
		if recover() != nil {
			out = placeholder
		}
	}()
	s, err := render()
	if err != nil {
		return placeholder
	}
	return s
}

func hasReadings(b Block) bool {
	return b != nil && b.Len() > 0
}

// ---------------------------------------------------------------------------
// Sections
// ---------------------------------------------------------------------------

func formatCurrent(resp Response) (string, error) {
	block := resp.Current()
	if !hasReadings(block) {
		return "", errNoReadings
	}

	var temp, windSpeed, windDir, code *float64
	for i := range block.Len() {
		r := block.Reading(i)
		v := r.Value()
		switch r.Variable() {
		case Temperature:
			temp = &v
		case WindSpeed:
			windSpeed = &v
		case WindDirection:
			windDir = &v
		case WeatherCode:
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return "", errInvalidCode
			}
			c := math.Trunc(v)
			code = &c
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Now:\nTemperature: %s°C\n", formatOptional(temp))
	if windSpeed != nil {
		fmt.Fprintf(&b, "Wind: %s km/h at %s°\n", FormatValue(*windSpeed), formatOptional(windDir))
	}
	b.WriteString("Conditions: " + describeCode(code))
	return b.String(), nil
}

// describeCode describes a truncated code. Codes beyond the int range
// cannot be in the table and render in full as "Code N".
func describeCode(code *float64) string {
	if code == nil {
		return DescribeWeatherCode(nil)
	}
	if *code < math.MinInt64 || *code >= math.MaxInt64 {
		return "Code " + strconv.FormatFloat(*code, 'f', -1, 64)
	}
	c := int(*code)
	return DescribeWeatherCode(&c)
}

func formatDaily(resp Response) (string, error) {
	block := resp.Daily()
	if !hasReadings(block) {
		return "", errNoReadings
	}

	var tmax, tmin, precip []float64
	for i := range block.Len() {
		r := block.Reading(i)
		values := seriesValues(r)
		switch r.Variable() {
		case Temperature:
			switch r.Aggregation() {
			case Maximum:
				tmax = values
			case Minimum:
				tmin = values
			}
		case Precipitation:
			precip = values
		}
	}

	start, interval, offset := block.Time(), block.Interval(), utcOffset(resp)
	rows := min(maxDailyRows, max(len(tmax), len(tmin), len(precip)))
	lines := make([]string, 0, rows)
	for i := range rows {
		date := rowTime(start, interval, offset, i).Format(time.DateOnly)
		lines = append(lines, fmt.Sprintf("%s: High %s°C, Low %s°C, Precipitation: %s mm",
			date, valueAt(tmax, i), valueAt(tmin, i), valueAt(precip, i)))
	}
	return "Daily Forecast:\n" + strings.Join(lines, "\n"), nil
}

func formatHourly(resp Response) (string, error) {
	block := resp.Hourly()
	if !hasReadings(block) {
		return "", errNoReadings
	}

	var temps, precs, winds []float64
	for i := range block.Len() {
		r := block.Reading(i)
		values := seriesValues(r)
		switch r.Variable() {
		case Temperature:
			temps = values
		case Precipitation:
			precs = values
		case WindSpeed:
			winds = values
		}
	}

	start, interval, offset := block.Time(), block.Interval(), utcOffset(resp)
	rows := min(maxHourlyRows, max(len(temps), len(precs), len(winds)))
	lines := make([]string, 0, rows)
	for i := range rows {
		stamp := rowTime(start, interval, offset, i).Format("2006-01-02 15:04")
		lines = append(lines, fmt.Sprintf("%s: %s°C, Precip: %s mm, Wind: %s km/h",
			stamp, valueAt(temps, i), valueAt(precs, i), valueAt(winds, i)))
	}
	return "Hourly Forecast (next 24h):\n" + strings.Join(lines, "\n"), nil
}

// rowTime returns start + i*interval + offset read as a UTC instant. The
// offset shifts the instant rather than selecting a zone, so the rendered
// wall clock is the location's local time labelled as UTC.
func rowTime(start, interval, offset int64, i int) time.Time {
	return time.Unix(start+int64(i)*interval+offset, 0).UTC()
}

// ---------------------------------------------------------------------------
// Series extraction
// ---------------------------------------------------------------------------

// seriesValues extracts the value series of r, preferring the bulk export
// and falling back to indexed access. Any failure yields an empty series.
func seriesValues(r Reading) []float64 {
	if vs, ok := bulkValues(r); ok {
		return vs
	}
	vs, _ := indexedValues(r)
	return vs
}

func bulkValues(r Reading) (vs []float64, ok bool) {
	defer func() {
		if recover() != nil {
			vs, ok = nil, false
		}
	}()
	bulk, isBulk := r.(BulkValues)
	if !isBulk {
		return nil, false
	}
	vs, err := bulk.ValuesSlice()
	if err != nil {
		return nil, false
	}
	return vs, true
}

func indexedValues(r Reading) (vs []float64, ok bool) {
	defer func() {
		if recover() != nil {
			vs, ok = nil, false
		}
	}()
	idx, isIndexed := r.(IndexedValues)
	if !isIndexed {
		return nil, false
	}
	n := idx.ValuesLength()
	vs = make([]float64, 0, n)
	for i := range n {
		v, err := idx.ValuesAt(i)
		if err != nil {
			return nil, false
		}
		vs = append(vs, v)
	}
	return vs, true
}

// ---------------------------------------------------------------------------
// Value rendering
// ---------------------------------------------------------------------------

// FormatValue renders f in its shortest round-trip form, always with a
// fractional part for integral values ("5.0", "-1.0") and in exponent form
// outside [1e-4, 1e16).
func FormatValue(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	if abs := math.Abs(f); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func formatOptional(f *float64) string {
	if f == nil {
		return absent
	}
	return FormatValue(*f)
}

func valueAt(vs []float64, i int) string {
	if i < len(vs) {
		return FormatValue(vs[i])
	}
	return missing
}
