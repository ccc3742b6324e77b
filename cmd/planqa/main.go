package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/citydesk/planqa/internal/config"
	"github.com/citydesk/planqa/internal/corpus"
	"github.com/citydesk/planqa/internal/db"
	dbRedis "github.com/citydesk/planqa/internal/db/redis"
	"github.com/citydesk/planqa/internal/domain"
	logpkg "github.com/citydesk/planqa/internal/logger"
	"github.com/citydesk/planqa/internal/metrics"
	"github.com/citydesk/planqa/internal/ratelimit"
	"github.com/citydesk/planqa/internal/repository/embcache"
	"github.com/citydesk/planqa/internal/retrieval"
	chiTransport "github.com/citydesk/planqa/internal/transport/chi"
	openaiProv "github.com/citydesk/planqa/internal/transport/openai"
	answeruc "github.com/citydesk/planqa/internal/usecase/answer"
	healthuc "github.com/citydesk/planqa/internal/usecase/health"
	rerankuc "github.com/citydesk/planqa/internal/usecase/rerank"
	searchuc "github.com/citydesk/planqa/internal/usecase/search"
	"github.com/citydesk/planqa/internal/version"
)

const storeReadinessTimeout = 30 * time.Second

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting planqa API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("corpus_path", cfg.Corpus.Path),
		zap.Bool("embedding_enabled", cfg.Embedding.Enabled()),
		zap.Bool("cache_enabled", cfg.Cache.Enabled()),
	)

	// Optional shared store — embedding cache and cross-replica rate counters.
	var store db.Store
	if cfg.Cache.Enabled() {
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer s.Close()

		ctx := context.Background()
		if err := s.WaitForReady(ctx, storeReadinessTimeout); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		logger.Info("Connected to cache store")
		store = s
	}

	// Register provider metrics explicitly (no init())
	metrics.RegisterProviderMetrics()

	passages, err := corpus.Load(cfg.Corpus.Path)
	if err != nil {
		logger.Fatal("Failed to load corpus", zap.Error(err))
	}
	logger.Info("Corpus loaded", zap.Int("passages", len(passages)))

	guard := retrieval.NewGuard(cfg.Retrieval.Limits)
	norm := retrieval.NewNormalizer(cfg.Retrieval.Tuning)
	scorer := retrieval.NewScorer(norm, passages)

	embedder := buildEmbedder(cfg, store, logger)

	generator := openaiProv.NewGenerator(&openaiProv.GeneratorConfig{
		APIKey:      cfg.Generation.APIKey,
		BaseURL:     cfg.Generation.BaseURL,
		Model:       cfg.Generation.Model,
		MaxTokens:   cfg.Generation.MaxTokens,
		Temperature: cfg.Generation.Temperature,
		Logger:      logger,
	})

	searchSvc := searchuc.New(guard, norm, scorer)
	rerankSvc := rerankuc.New(embedder)
	answerSvc := answeruc.New(
		guard, searchSvc, rerankSvc, generator, cfg.Retrieval.TopN, cfg.Generation.System,
	)
	healthSvc := healthuc.New(len(passages), healthPinger(store), healthEmbChecker(embedder))

	limiter := buildLimiter(cfg, store)

	server := chiTransport.NewServer(searchSvc, answerSvc, healthSvc, version.Version, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(chiTransport.RateLimitMiddleware(limiter, logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the embedding chain: OpenAI-compatible provider,
// optionally wrapped in the store-backed cache. Returns nil when no
// embedding collaborator is configured; the reranker then keeps lexical
// order for every request.
func buildEmbedder(cfg config.Config, store db.Store, logger *zap.Logger) domain.BatchEmbedder {
	if !cfg.Embedding.Enabled() {
		logger.Info("No embedding provider configured, serving lexical order only")
		return nil
	}

	base := openaiProv.NewEmbedder(&openaiProv.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		BatchSize:  cfg.Embedding.BatchSize,
		Logger:     logger,
	})
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Int("batch_size", cfg.Embedding.BatchSize),
	)

	if store == nil {
		return base
	}

	ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
	return embcache.New(base, store, ttl, metrics.EmbeddingCacheTotal, logger)
}

// buildLimiter picks the rate-limit driver. Config validation already
// guaranteed the redis driver has a store.
func buildLimiter(cfg config.Config, store db.Store) ratelimit.Limiter {
	limit := int64(cfg.RateLimit.Limit)
	window := time.Duration(cfg.RateLimit.WindowSec) * time.Second

	if cfg.RateLimit.Driver == "redis" {
		return ratelimit.NewStore(store, limit, window)
	}
	return ratelimit.NewMemory(limit, window)
}

// healthPinger avoids the typed-nil-in-interface gotcha for the optional store.
func healthPinger(store db.Store) healthuc.CachePinger {
	if store == nil {
		return nil
	}
	return store
}

// healthEmbChecker exposes the embedder's health check when it has one.
func healthEmbChecker(embedder domain.BatchEmbedder) healthuc.EmbeddingChecker {
	if hc, ok := embedder.(domain.HealthChecker); ok {
		return hc
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.WithContext(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
