package tracing

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/elasticbundle/internal/logging"
	"github.com/GriffinCanCode/elasticbundle/internal/shared/id"
)

// maxIncomingIDLength bounds request IDs accepted from clients
const maxIncomingIDLength = 128

// HTTPMiddleware assigns every request an ID, taken from X-Request-ID when
// the caller sent a sane one, and logs the request when it completes
func HTTPMiddleware(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := id.RequestID(c.GetHeader(RequestIDHeader))
		if reqID == "" || len(reqID) > maxIncomingIDLength {
			reqID = id.NewRequestID()
		}

		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), reqID))
		c.Header(RequestIDHeader, reqID.String())

		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("request_id", reqID.String()),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			logger.Error("request completed with error", append(fields, zap.Error(c.Errors.Last()))...)
			return
		}
		logger.Debug("request completed", fields...)
	}
}
