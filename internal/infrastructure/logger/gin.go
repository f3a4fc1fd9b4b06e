package logger

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// quietPaths are logged at debug level when they succeed
var quietPaths = map[string]bool{
	"/health":     true,
	"/api/health": true,
}

// GinMiddleware logs every request and places a request scoped logger in the
// request context for logger.L. It must run after the request id middleware.
func GinMiddleware(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		}
		if id := GetRequestID(ctx); id != "" {
			fields = append(fields, zap.String("request_id", id))
		}
		if m := c.Param("marketplace"); m != "" {
			fields = append(fields, zap.String("marketplace", m))
		}
		reqLogger := base.With(fields...)
		c.Request = c.Request.WithContext(WithContext(ctx, reqLogger))

		c.Next()

		status := c.Writer.Status()
		done := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			done = append(done, zap.String("query", q))
		}
		if subject := GetSubject(c.Request.Context()); subject != "" {
			done = append(done, zap.String("subject", subject))
		}
		if len(c.Errors) > 0 {
			done = append(done, zap.Strings("errors", c.Errors.Errors()))
		}
		done = append(done, TraceFields(c.Request.Context())...)

		level := zapcore.InfoLevel
		switch {
		case status >= http.StatusInternalServerError:
			level = zapcore.ErrorLevel
		case status >= http.StatusBadRequest:
			level = zapcore.WarnLevel
		case quietPaths[c.Request.URL.Path]:
			level = zapcore.DebugLevel
		}
		if ce := reqLogger.Check(level, "HTTP request"); ce != nil {
			ce.Write(done...)
		}
	}
}

// Recovery turns a panic into a 500 error envelope and logs the stack
func Recovery(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				base.Error("Panic recovered",
					zap.String("request_id", GetRequestID(c.Request.Context())),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", r),
					zap.Stack("stacktrace"),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error":   gin.H{"code": "ERR_INTERNAL", "message": "internal server error"},
				})
			}
		}()
		c.Next()
	}
}
