// Package httpmw holds the gin middleware of the chat HTTP server.
package httpmw

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kandev/dbchat/internal/common/logger"
	"github.com/kandev/dbchat/internal/common/tracing"
)

func route(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}

// RequestLogger logs each request once it completes. A WebSocket request
// completes when its connection closes, so those are logged as sessions.
func RequestLogger(log *logger.Logger, serverName string) gin.HandlerFunc {
	log = log.Component("http").WithFields(zap.String("server", serverName))

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", route(c)),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote_addr", c.ClientIP()),
		}

		switch {
		case status == http.StatusSwitchingProtocols:
			log.Info("websocket session closed", fields...)
		case status >= http.StatusInternalServerError:
			log.Error("request failed", append(fields, zap.Strings("errors", c.Errors.Errors()))...)
		default:
			log.Debug("request served", fields...)
		}
	}
}

// OtelTracing wraps requests in server spans, continuing any trace context
// sent by the caller. Paths in skip get no span; long-lived WebSocket routes
// belong there. No-op while tracing is disabled.
func OtelTracing(serverName string, skip ...string) gin.HandlerFunc {
	tracer := tracing.Tracer(serverName)

	return func(c *gin.Context) {
		path := route(c)
		if slices.Contains(skip, path) {
			c.Next()
			return
		}

		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+path, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			semconv.HTTPRequestMethodKey.String(c.Request.Method),
			semconv.HTTPRouteKey.String(path),
			semconv.HTTPResponseStatusCodeKey.Int(status),
			attribute.String("server.name", serverName),
		)
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}
	}
}
