package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/zionnet/newsflow/internal/api"
	"github.com/zionnet/newsflow/internal/cache"
	"github.com/zionnet/newsflow/internal/config"
	"github.com/zionnet/newsflow/internal/consumer"
	"github.com/zionnet/newsflow/internal/db"
	"github.com/zionnet/newsflow/internal/enrich"
	"github.com/zionnet/newsflow/internal/identity"
	"github.com/zionnet/newsflow/internal/metrics"
	"github.com/zionnet/newsflow/internal/pipeline"
	"github.com/zionnet/newsflow/internal/sink"
	"github.com/zionnet/newsflow/internal/summarize"
	"github.com/zionnet/newsflow/internal/upstream"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- identity store ----
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	users := identity.NewPgUserRepository(pool)

	// ---- cache store ----
	store, err := cache.Open(cfg.CachePath)
	if err != nil {
		logger.Fatal("failed to open cache store", zap.Error(err))
	}
	defer store.Close()

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	source := upstream.NewHTTPSource(cfg.NewsBaseURL, cfg.NewsAPIKey, cfg.NewsRatePerSec, cfg.NewsTimeout)
	summarizer := summarize.NewGeminiSummarizer(cfg.SummarizerBaseURL, cfg.SummarizerAPIKey, cfg.SummarizerModel, cfg.SummarizerTimeout)
	enricher := enrich.New(source, summarizer, logger.Named("enrich"))

	sinks := []sink.Sink{
		sink.NewEmailSink(cfg.EmailSinkURL, cfg.SinkTimeout),
		sink.NewTelegramSink(cfg.TelegramSinkURL, cfg.SinkTimeout),
	}

	onCacheHit, onCacheMiss, onFetchMiss, onSink := m.PipelineHooks()
	pipe := pipeline.New(store, enricher, sinks, pipeline.Options{
		TTL:         cfg.CacheTTL,
		RunTimeout:  cfg.PipelineTimeout,
		SinkTimeout: cfg.SinkTimeout,
	}, logger.Named("pipeline"), pipeline.Hooks{
		OnCacheHit:  onCacheHit,
		OnCacheMiss: onCacheMiss,
		OnFetchMiss: onFetchMiss,
		OnSink:      onSink,
	})

	// ---- signup ingestion consumer ----
	// Context for all background goroutines; cancelled on shutdown signal.
	consumerCtx, cancelConsumer := context.WithCancel(ctx)
	defer cancelConsumer()

	cons := consumer.New(cfg, users, logger.Named("consumer"), consumer.Hooks{
		OnMessage: m.ConsumerHook(),
	})

	consumerErr := make(chan error, 1)
	go func() {
		consumerErr <- cons.Run(consumerCtx)
	}()

	// ---- HTTP server ----
	router := api.NewRouter(pipe, users, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutdown signal received")
	case err := <-consumerErr:
		// Unrecoverable queue-connection exhaustion: terminate and rely on
		// external process supervision to restart the instance.
		if err != nil {
			logger.Error("consumer terminated", zap.Error(err))
		}
	}

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Signal the consumer to stop after its in-flight message.
	cancelConsumer()

	// 3. Wait for in-flight sink deliveries to finish.
	pipe.Wait()

	logger.Info("server stopped cleanly")
}
