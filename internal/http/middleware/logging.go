// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides request correlation, structured access logging with
// header redaction, and a panic-safe recovery handler. Recommended order:
//  1. RequestID()
//  2. Logger()
//  3. Recovery()
//
// so that panics and errors carry the correlation ID and reach the logs.
package middleware

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// requestIDKey is the Gin context key under which the request ID is stored.
	requestIDKey = "requestID"
	// requestIDHeader is the HTTP header used to propagate the correlation ID.
	requestIDHeader = "X-Request-ID"
	// loggerKey is the Gin context key for the request-scoped logger.
	loggerKey = "logger"
	// maxQueryLogBytes caps how much of the raw query string is logged.
	maxQueryLogBytes = 2048
)

// redactedHeaders are request headers whose values never reach the logs.
// Authorization carries the bearer credential of the identity boundary.
var redactedHeaders = []string{"Authorization", "X-API-Key", "Cookie"}

// RequestID attaches (or propagates) a correlation identifier per request.
// An incoming X-Request-ID is reused; otherwise a new UUIDv4 is generated.
// The ID is echoed in the response header and stored in the Gin context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// Logger writes one structured access log line per request and stores a
// request-scoped zerolog.Logger in the Gin context for downstream enrichment.
// Sensitive request headers are logged as "[REDACTED]" when present. Level is
// chosen by outcome: error for 5xx, warn for 4xx, info otherwise.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetString(requestIDKey)
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		lg := log.With().
			Str("request_id", rid).
			Str("method", c.Request.Method).
			Str("path", route).
			Logger()
		c.Set(loggerKey, lg)

		c.Next()

		query := c.Request.URL.RawQuery
		if len(query) > maxQueryLogBytes {
			query = query[:maxQueryLogBytes]
		}

		evt := lg.Info()
		status := c.Writer.Status()
		switch {
		case status >= http.StatusInternalServerError || len(c.Errors) > 0:
			evt = lg.Error()
		case status >= http.StatusBadRequest:
			evt = lg.Warn()
		}

		for _, h := range redactedHeaders {
			if c.GetHeader(h) != "" {
				evt = evt.Str(strings.ToLower(h), "[REDACTED]")
			}
		}
		if uid := c.GetString(userIDKey); uid != "" {
			evt = evt.Str("user_id", uid)
		}

		evt.
			Int("status", status).
			Str("ip", c.ClientIP()).
			Str("query", query).
			Dur("latency", time.Since(start)).
			Int("bytes_out", c.Writer.Size()).
			Msg("http request")
	}
}

// LoggerFrom returns the request-scoped logger stored by Logger(), or the
// global logger when none is present (e.g. in tests hitting handlers
// directly).
func LoggerFrom(c *gin.Context) zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(zerolog.Logger); ok {
			return lg
		}
	}
	return log.Logger
}

// Recovery converts panics into JSON 500 responses carrying the correlation
// ID, and logs the stack trace.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				lg := LoggerFrom(c)
				lg.Error().
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"request_id": c.GetString(requestIDKey),
					"code":       "internal_error",
					"message":    "internal server error",
				})
			}
		}()
		c.Next()
	}
}
