// Package httpapi wires the HTTP transport (Gin) to the rewrite pipeline,
// middleware, and route handlers. It centralizes cross-cutting concerns:
// tracing, correlation IDs, structured logging with redaction, panic
// recovery, metrics, compression, identity, rate limiting, CORS, and
// security headers.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured logs with header redaction
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip compression
//  7. Metrics
//  8. Bearer identity (verified user id, or 401 on bad credentials)
//  9. Rate limiter (per user/IP)
//  10. CORS and security headers
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/rewriteguard/rewrite-backend/docs"
	"github.com/rewriteguard/rewrite-backend/internal/auth"
	"github.com/rewriteguard/rewrite-backend/internal/config"
	"github.com/rewriteguard/rewrite-backend/internal/http/handlers"
	"github.com/rewriteguard/rewrite-backend/internal/http/middleware"
)

// Deps are the application services the router mounts. Handlers depend on
// the interfaces declared in the handlers package; anything satisfying them
// can be injected (tests use fakes).
type Deps struct {
	Rewrite  handlers.RewriteService
	Quota    handlers.QuotaService
	Jobs     handlers.JobService
	Verifier auth.Verifier
}

// RegisterRoutes attaches all middleware and endpoints to the given Gin
// engine: observability, identity, rate limiting, web protection, health and
// metrics endpoints, then the versioned public API under cfg.APIBasePath.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit. Detect accepts up to 20k chars of text;
	// 1 MiB leaves generous headroom for JSON overhead.
	r.Use(limitBody(1 << 20))

	// 6) Compress JSON responses
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Identity boundary: optional bearer credential → verified user id
	r.Use(middleware.BearerAuth(deps.Verifier))

	// 9) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst)
	r.Use(rl.Handler())

	// 10) CORS posture (allow all when no origins configured) and headers
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS: cfg.Security.EnableHSTS,
		HSTSMaxAge: cfg.Security.HSTSMaxAge,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs (behind a flag; dev/staging only)
	if cfg.SwaggerEnabled {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(deps.Rewrite, deps.Quota, deps.Jobs)

	// Public API
	api := r.Group(cfg.APIBasePath) // e.g. "/api/v1"
	{
		// Rewrite pipeline
		api.POST("/paraphrase", h.Paraphrase)
		api.POST("/detect", h.Detect)

		// Quota (usage/check require identity; plan listing is public)
		q := api.Group("/quota")
		q.GET("/plans", h.GetPlans)
		q.GET("/usage", middleware.RequireUser(), h.GetUsage)
		q.GET("/check", middleware.RequireUser(), h.CheckQuota)

		// Job history
		api.GET("/jobs", middleware.RequireUser(), h.ListJobs)
	}
}

// limitBody caps the request body size for all endpoints using
// http.MaxBytesReader; oversize bodies error on read downstream.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
