// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package forecast

import "strconv"

// weatherCodes maps WMO weather interpretation codes to descriptions.
var weatherCodes = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Drizzle: Light",
	53: "Drizzle: Moderate",
	55: "Drizzle: Dense",
	61: "Rain: Slight",
	63: "Rain: Moderate",
	65: "Rain: Heavy",
	71: "Snow: Slight",
	73: "Snow: Moderate",
	75: "Snow: Heavy",
	77: "Snow grains",
	80: "Rain showers: Slight",
	81: "Rain showers: Moderate",
	82: "Rain showers: Violent",
	95: "Thunderstorm: Slight or moderate",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// DescribeWeatherCode returns the description for code. Unknown codes
// render as "Code N" and a nil code as "Unknown".
func DescribeWeatherCode(code *int) string {
	if code == nil {
		return "Unknown"
	}
	if desc, ok := weatherCodes[*code]; ok {
		return desc
	}
	return "Code " + strconv.Itoa(*code)
}
