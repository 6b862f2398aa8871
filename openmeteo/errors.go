// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package openmeteo

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is returned when the API answers with a non-200 status.
type APIError struct {
	StatusCode int
	Reason     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("open-meteo: API error %d: %s", e.StatusCode, e.Reason)
}

// newAPIError extracts the reason from an error body of the form
// {"error": true, "reason": "..."}, falling back to the raw body.
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Reason string `json:"reason"`
	}
	reason := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &payload); err == nil && payload.Reason != "" {
		reason = payload.Reason
	}
	return &APIError{StatusCode: status, Reason: reason}
}

// NetworkError wraps a transport failure.
type NetworkError struct {
	Operation string
	Err       error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("open-meteo: network error during %s: %v", e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
