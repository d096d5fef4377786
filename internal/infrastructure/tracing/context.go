package tracing

import (
	"context"
	"net/http"

	"github.com/GriffinCanCode/elasticbundle/internal/shared/id"
)

// Header names used for propagation
const (
	RequestIDHeader = "X-Request-ID"

	// OpaqueIDHeader is echoed by Elasticsearch in its task and slow logs
	OpaqueIDHeader = "X-Opaque-Id"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// WithRequestID returns a context carrying the request ID
func WithRequestID(ctx context.Context, reqID id.RequestID) context.Context {
	return context.WithValue(ctx, requestIDKey, reqID)
}

// RequestID retrieves the request ID from context
func RequestID(ctx context.Context) id.RequestID {
	if ctx == nil {
		return ""
	}
	if reqID, ok := ctx.Value(requestIDKey).(id.RequestID); ok {
		return reqID
	}
	return ""
}

// InjectOpaqueID copies the request ID into outgoing search-engine headers
// unless the caller already set one
func InjectOpaqueID(ctx context.Context, headers http.Header) {
	reqID := RequestID(ctx)
	if reqID == "" || headers.Get(OpaqueIDHeader) != "" {
		return
	}
	headers.Set(OpaqueIDHeader, reqID.String())
}
