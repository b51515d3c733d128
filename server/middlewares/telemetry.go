package middlewares

import (
	"bytes"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"
	zap "go.uber.org/zap"

	config "github.com/inference-gateway/a2a/server/config"
	otel "github.com/inference-gateway/a2a/server/otel"
)

type Telemetry interface {
	Middleware() gin.HandlerFunc
}

type TelemetryImpl struct {
	cfg       config.Config
	telemetry otel.OpenTelemetry
	logger    *zap.Logger
}

func NewTelemetryMiddleware(cfg config.Config, telemetry otel.OpenTelemetry, logger *zap.Logger) (Telemetry, error) {
	return &TelemetryImpl{
		cfg:       cfg,
		telemetry: telemetry,
		logger:    logger,
	}, nil
}

// responseBodyWriter is a wrapper for the response writer that captures the body
type responseBodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

// Write captures the response body
func (w *responseBodyWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (t *TelemetryImpl) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if !t.cfg.TelemetryConfig.Enable || !isProtocolPath(path) {
			c.Next()
			return
		}

		startTime := time.Now()

		attrs := otel.TelemetryAttributes{
			Transport: transportForPath(path),
		}

		responseWriter := &responseBodyWriter{
			ResponseWriter: c.Writer,
			body:           bytes.NewBuffer(nil),
		}
		c.Writer = responseWriter

		t.telemetry.RecordRequestCount(c.Request.Context(), attrs, c.Request.Method)

		c.Next()

		duration := time.Since(startTime)
		durationMs := float64(duration.Nanoseconds()) / float64(time.Millisecond)

		statusCode := responseWriter.Status()

		t.telemetry.RecordResponseStatus(
			c.Request.Context(),
			attrs,
			c.Request.Method,
			path,
			statusCode,
		)

		t.telemetry.RecordRequestDuration(
			c.Request.Context(),
			attrs,
			c.Request.Method,
			path,
			durationMs,
		)

		t.logger.Debug("request telemetry recorded",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status_code", statusCode),
			zap.Float64("duration_ms", durationMs),
			zap.String("transport", attrs.Transport),
		)
	}
}

// isProtocolPath reports whether the request targets a protocol surface
// rather than health or card discovery routes.
func isProtocolPath(path string) bool {
	return strings.Contains(path, "/a2a") || strings.HasPrefix(path, "/v1/")
}

func transportForPath(path string) string {
	if strings.HasPrefix(path, "/v1/") {
		return "HTTP+JSON"
	}
	return "JSONRPC"
}
