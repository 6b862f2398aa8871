// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package forecast

// ---------------------------------------------------------------------------
// Variables
// ---------------------------------------------------------------------------

// Variable identifies the kind of a weather reading.
type Variable int

const (
	Unknown Variable = iota
	Temperature
	WeatherCode
	WindSpeed
	WindDirection
	Precipitation
)

// String returns the upstream variable name.
func (v Variable) String() string {
	switch v {
	case Temperature:
		return "temperature"
	case WeatherCode:
		return "weather_code"
	case WindSpeed:
		return "wind_speed"
	case WindDirection:
		return "wind_direction"
	case Precipitation:
		return "precipitation"
	default:
		return "unknown"
	}
}

// Aggregation tags a daily series. The numeric values match the upstream
// enumeration: 1 is the daily minimum and 2 the daily maximum.
type Aggregation int

const (
	AggregationNone Aggregation = 0
	Minimum         Aggregation = 1
	Maximum         Aggregation = 2
)

// ---------------------------------------------------------------------------
// Response model
// ---------------------------------------------------------------------------

// Location is a pair of coordinates. Values are passed to the upstream API
// as given.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Reading is one variable within a Block. Current readings carry a scalar
// in Value; Daily and Hourly readings carry a series, exposed through
// BulkValues or IndexedValues.
type Reading interface {
	Variable() Variable
	Aggregation() Aggregation
	Value() float64
}

// BulkValues is implemented by readings that can export their whole series
// at once.
type BulkValues interface {
	ValuesSlice() ([]float64, error)
}

// IndexedValues is implemented by readings that expose their series one
// element at a time.
type IndexedValues interface {
	ValuesLength() int
	ValuesAt(i int) (float64, error)
}

// Block is a group of readings sharing one timing schedule. Time is the
// unix start of the first element and Interval the step in seconds.
type Block interface {
	Len() int
	Reading(i int) Reading
	Time() int64
	Interval() int64
}

// Response is a decoded forecast for one location. Each block may be nil.
// It is a read-only view valid for a single formatting pass.
type Response interface {
	Current() Block
	Daily() Block
	Hourly() Block
}

// Optional accessors. A Response implements whichever of these the
// upstream payload could provide; each reports ok=false when the value
// is missing.
type (
	UTCOffsetter interface {
		UTCOffsetSeconds() (int64, bool)
	}
	GenerationTimer interface {
		GenerationTimeMilliseconds() (float64, bool)
	}
	Modeler interface {
		Model() (string, bool)
	}
	Timezoner interface {
		Timezone() (string, bool)
	}
	Locator interface {
		Coordinates() (Location, bool)
	}
	Elevator interface {
		Elevation() (float64, bool)
	}
)

// utcOffset returns the response's offset, or 0 when it has none.
func utcOffset(r Response) int64 {
	if o, ok := r.(UTCOffsetter); ok {
		if v, ok := o.UTCOffsetSeconds(); ok {
			return v
		}
	}
	return 0
}
