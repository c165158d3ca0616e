// Command server runs the rewrite backend: an HTTP API that paraphrases
// text through a chunked generation pipeline and classifies text as AI- or
// human-written, with content-addressed caching, daily word quotas, and job
// history.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rewriteguard/rewrite-backend/internal/auth"
	"github.com/rewriteguard/rewrite-backend/internal/cache"
	"github.com/rewriteguard/rewrite-backend/internal/config"
	httpapi "github.com/rewriteguard/rewrite-backend/internal/http"
	"github.com/rewriteguard/rewrite-backend/internal/observability"
	"github.com/rewriteguard/rewrite-backend/internal/quota"
	"github.com/rewriteguard/rewrite-backend/internal/repo"
	"github.com/rewriteguard/rewrite-backend/internal/rewrite"
	"github.com/rewriteguard/rewrite-backend/internal/sysutil"
	"github.com/rewriteguard/rewrite-backend/internal/textproc"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// @title           Rewrite Backend API
// @version         1.0
// @description     Mode-conditioned paraphrasing and AI-text detection with daily word quotas.
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Local development convenience; real deployments set env directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = log.Logger.With().Str("service", sysutil.FirstNonEmpty(cfg.OTEL.ServiceName, "rewrite-backend")).Logger()

	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	// Tracing
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	// Storage
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database failed")
	}

	usageLedger := repo.NewUsageLedger(db)
	jobRepo := repo.NewJobRepo(db)
	cacheStore := repo.NewCacheStore(db)

	// Quota gate. Plans live in memory; every user starts on the free tier
	// until a billing integration promotes them.
	gate := quota.NewGate(usageLedger, quota.NewMemoryPlanStore())

	// Result cache keyed by request fingerprint.
	gateway := cache.NewGateway(cacheStore, cfg.CacheTTL)

	// Expired cache rows are lazily dropped on read; sweep the rest so the
	// table does not grow without bound.
	purgeCtx, stopPurge := context.WithCancel(ctx)
	go func() {
		t := time.NewTicker(10 * time.Minute)
		defer t.Stop()
		for {
			select {
			case <-purgeCtx.Done():
				return
			case <-t.C:
				if n, err := cacheStore.PurgeExpired(purgeCtx); err != nil {
					log.Warn().Err(err).Msg("cache purge failed")
				} else if n > 0 {
					log.Debug().Int64("rows", n).Msg("cache purge")
				}
			}
		}
	}()

	// Generation capability. No model runtime is linked into this build, so
	// initialization reports unavailable and the dispatcher serves degraded
	// mock output. Swapping in a real backend means returning it here.
	capability := rewrite.NewCapability(func() (rewrite.Generator, error) {
		return nil, rewrite.ErrGenerationUnavailable
	})
	dispatcher := rewrite.NewDispatcher(capability)

	pool := rewrite.NewPool(cfg.WorkerPoolSize)

	svc := &rewrite.Service{
		Chunker:           &textproc.Chunker{Budget: cfg.ChunkBudget, Overlap: cfg.OverlapSentences},
		Dispatcher:        dispatcher,
		Detector:          rewrite.MockDetector{},
		Cache:             gateway,
		Quota:             gate,
		Jobs:              jobRepo,
		Pool:              pool,
		ParaphraseTimeout: cfg.ParaphraseTimeout,
		DetectTimeout:     cfg.DetectTimeout,
	}

	verifier := auth.NewMemorySessions()

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		Rewrite:  svc,
		Quota:    gate,
		Jobs:     jobRepo,
		Verifier: verifier,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("version", version).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	stopPurge()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown forced")
	}

	// Drain in-flight generation work before releasing the tracer.
	pool.Close()

	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown failed")
	}
	log.Info().Msg("server exited")
}
