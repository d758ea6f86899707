package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotConfigured is returned by gateways that have no credentials
var ErrNotConfigured = errors.New("not configured")

// InsufficientDataError means the series is too short for indicator computation
type InsufficientDataError struct {
	Required int
	Got      int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for technical analysis (minimum %d periods required, got %d)", e.Required, e.Got)
}

// ValidationError carries every structural problem found in a request
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Reasons, ", ")
}

// RiskViolationError is a policy rejection from a risk gate
type RiskViolationError struct {
	Reason string
}

func (e *RiskViolationError) Error() string {
	return "Risk management violation: " + e.Reason
}

// GatewayError wraps a failure from a broker or market data API
type GatewayError struct {
	Gateway    string
	Op         string
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s failed (status %d): %v", e.Gateway, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Gateway, e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// DataUnavailableError means market data could not be fetched
type DataUnavailableError struct {
	Source string
	Symbol string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("market data unavailable from %s for %s: %v", e.Source, e.Symbol, e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }
