package collector

import (
	"github.com/bytedance/sonic"
)

// Trace is the immutable record of one completed call.
type Trace struct {
	method     string
	uri        string
	headers    string
	statusCode int
	duration   float64
	took       *float64
	body       any
	err        string
}

// Method returns the HTTP verb of the call.
func (t Trace) Method() string { return t.method }

// URI returns the request path, query string included.
func (t Trace) URI() string { return t.uri }

// Headers returns the request headers as rendered by the collector's stringifier.
func (t Trace) Headers() string { return t.headers }

// StatusCode returns the response status, or 0 when no response was received.
func (t Trace) StatusCode() int { return t.statusCode }

// HasResponse reports whether the call got a response at all.
func (t Trace) HasResponse() bool { return t.statusCode != 0 }

// Duration returns the client-measured duration in seconds.
func (t Trace) Duration() float64 { return t.duration }

// Took returns the server-reported time in seconds, if any.
func (t Trace) Took() (float64, bool) {
	if t.took == nil {
		return 0, false
	}
	return *t.took, true
}

// Body returns a copy of the decoded response payload. It is nil when the
// response was empty or could not be decoded.
func (t Trace) Body() any { return cloneValue(t.body) }

// Error returns the error reported for the call, empty if none.
func (t Trace) Error() string { return t.err }

// traceJSON is the wire shape used by the profiler panel.
type traceJSON struct {
	Method     string   `json:"method"`
	URI        string   `json:"uri"`
	Headers    string   `json:"headers"`
	StatusCode *int     `json:"status_code"`
	Duration   float64  `json:"duration"`
	Took       *float64 `json:"took"`
	Body       any      `json:"body"`
	Error      *string  `json:"error"`
}

// MarshalJSON renders absent optional fields as null.
func (t Trace) MarshalJSON() ([]byte, error) {
	view := traceJSON{
		Method:   t.method,
		URI:      t.uri,
		Headers:  t.headers,
		Duration: t.duration,
		Took:     t.took,
		Body:     t.body,
	}
	if t.statusCode != 0 {
		code := t.statusCode
		view.StatusCode = &code
	}
	if t.err != "" {
		msg := t.err
		view.Error = &msg
	}
	return sonic.Marshal(view)
}

// cloneValue deep-copies the map/slice tree produced by JSON decoding.
// Scalars are immutable and returned as is.
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}
