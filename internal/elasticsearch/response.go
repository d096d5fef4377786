package elasticsearch

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"
)

// Response is a completed call with any status code.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// Took is the server-side processing time in milliseconds, -1 if absent
	Took int64
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("elasticsearch: empty response body")
	}
	if err := sonic.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("elasticsearch: decode response: %w", err)
	}
	return nil
}

// IsError reports whether the server answered with an error status.
func (r *Response) IsError() bool {
	return r.StatusCode >= http.StatusBadRequest
}

// Err returns a *ResponseError for error statuses, nil otherwise.
func (r *Response) Err() error {
	if !r.IsError() {
		return nil
	}
	return newResponseError(r.StatusCode, r.Body)
}

// ResponseError is an error status answered by the server.
type ResponseError struct {
	StatusCode int
	Type       string
	Reason     string
}

func (e *ResponseError) Error() string {
	switch {
	case e.Type != "" && e.Reason != "":
		return fmt.Sprintf("elasticsearch: %d %s: %s", e.StatusCode, e.Type, e.Reason)
	case e.Reason != "":
		return fmt.Sprintf("elasticsearch: %d: %s", e.StatusCode, e.Reason)
	default:
		return fmt.Sprintf("elasticsearch: status %d", e.StatusCode)
	}
}

// newResponseError reads {"error":{"type":..,"reason":..}} and the older
// {"error":"..."} form.
func newResponseError(status int, body []byte) *ResponseError {
	e := &ResponseError{StatusCode: status}
	if len(body) == 0 {
		return e
	}
	if node, err := sonic.Get(body, "error", "type"); err == nil {
		e.Type, _ = node.String()
	}
	if node, err := sonic.Get(body, "error", "reason"); err == nil {
		e.Reason, _ = node.String()
	}
	if e.Type == "" && e.Reason == "" {
		if node, err := sonic.Get(body, "error"); err == nil {
			e.Reason, _ = node.String()
		}
	}
	return e
}

// IsNotFound reports whether err is a 404 answered by the server.
func IsNotFound(err error) bool {
	var respErr *ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}

// tookMillis reads the top-level "took" field without decoding the body.
func tookMillis(body []byte) (int64, bool) {
	if len(body) == 0 {
		return 0, false
	}
	node, err := sonic.Get(body, "took")
	if err != nil {
		return 0, false
	}
	ms, err := node.Int64()
	if err != nil || ms < 0 {
		return 0, false
	}
	return ms, true
}
