package collector

import (
	"errors"
	"fmt"
	"math"
	"net/http"
)

// ErrMalformedEvent is the sentinel wrapped by every MalformedEventError.
var ErrMalformedEvent = errors.New("malformed call event")

// Reasons reported by MalformedEventError, also used as metric labels.
const (
	ReasonMissingMethod     = "missing_method"
	ReasonNegativeDuration  = "negative_duration"
	ReasonNonFiniteDuration = "non_finite_duration"
)

// Event is the call-completion notification an instrumented client emits
// after each network call, successful or not.
type Event struct {
	Method  string
	URI     string
	Headers http.Header

	// StatusCode is 0 when the call failed before a response arrived.
	StatusCode int

	// Duration is the client-measured wall-clock time, in seconds.
	Duration float64

	// Took is the server-reported processing time in seconds, nil if the
	// response carried none.
	Took *float64

	// Body is the raw response payload, expected to be JSON.
	Body []byte

	// Error describes a failed call; empty when the call succeeded.
	Error string
}

// MalformedEventError reports an event rejected at the collector boundary.
type MalformedEventError struct {
	Reason string
	Method string
	URI    string
	Value  float64
}

func (e *MalformedEventError) Error() string {
	switch e.Reason {
	case ReasonMissingMethod:
		return fmt.Sprintf("%s: method is empty (uri %q)", ErrMalformedEvent, e.URI)
	default:
		return fmt.Sprintf("%s: duration must be a non-negative finite number, got %v (%s %s)",
			ErrMalformedEvent, e.Value, e.Method, e.URI)
	}
}

func (e *MalformedEventError) Unwrap() error {
	return ErrMalformedEvent
}

// Validate checks the event's shape. It does not look at the body.
func (ev Event) Validate() error {
	if ev.Method == "" {
		return &MalformedEventError{Reason: ReasonMissingMethod, URI: ev.URI}
	}
	if math.IsNaN(ev.Duration) || math.IsInf(ev.Duration, 0) {
		return &MalformedEventError{Reason: ReasonNonFiniteDuration, Method: ev.Method, URI: ev.URI, Value: ev.Duration}
	}
	if ev.Duration < 0 {
		return &MalformedEventError{Reason: ReasonNegativeDuration, Method: ev.Method, URI: ev.URI, Value: ev.Duration}
	}
	return nil
}
