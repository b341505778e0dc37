package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure from an external collaborator. The set is
// closed so callers can branch on kind instead of matching error strings.
type ErrorKind string

const (
	// KindNetwork covers unreachable upstreams: DNS, connect, and timeout
	// failures before any response arrives.
	KindNetwork ErrorKind = "network"
	// KindUpstreamStatus is a non-2xx response from an upstream API.
	KindUpstreamStatus ErrorKind = "upstream_status"
	// KindMalformedResponse is a response body that failed to parse.
	KindMalformedResponse ErrorKind = "malformed_response"
	// KindNoData is a well-formed response carrying an empty result set.
	KindNoData ErrorKind = "no_data"
	// KindMissingConfig is an absent API key or other required setting.
	KindMissingConfig ErrorKind = "missing_config"
	// KindStore is a database connection or query failure.
	KindStore ErrorKind = "store"
	// KindInference is a model invocation failure.
	KindInference ErrorKind = "inference"
)

// SourceError is a classified failure from a named collaborator (an upstream
// API, the sensor store, or the risk model).
type SourceError struct {
	Kind       ErrorKind
	Source     string // "airnow", "openweather", "store", "risk_model"
	StatusCode int    // set when Kind is KindUpstreamStatus
	Err        error
}

func (e *SourceError) Error() string {
	switch {
	case e.Kind == KindUpstreamStatus:
		return fmt.Sprintf("%s: upstream returned status %d", e.Source, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Source, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Source, e.Kind)
	}
}

func (e *SourceError) Unwrap() error { return e.Err }

// NewSourceError builds a SourceError wrapping cause.
func NewSourceError(kind ErrorKind, source string, cause error) *SourceError {
	return &SourceError{Kind: kind, Source: source, Err: cause}
}

// NewStatusError builds a SourceError for a non-2xx upstream response.
func NewStatusError(source string, statusCode int) *SourceError {
	return &SourceError{Kind: KindUpstreamStatus, Source: source, StatusCode: statusCode}
}

// KindOf extracts the ErrorKind from err, or "" if err carries no
// SourceError in its chain.
func KindOf(err error) ErrorKind {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
