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

	"github.com/keplerlabs/kepler/internal/config"
	"github.com/keplerlabs/kepler/internal/db"
	dbMemory "github.com/keplerlabs/kepler/internal/db/memory"
	dbRedis "github.com/keplerlabs/kepler/internal/db/redis"
	"github.com/keplerlabs/kepler/internal/domain"
	logpkg "github.com/keplerlabs/kepler/internal/logger"
	"github.com/keplerlabs/kepler/internal/metrics"
	"github.com/keplerlabs/kepler/internal/repository/knowledge"
	"github.com/keplerlabs/kepler/internal/repository/webcache"
	chiTransport "github.com/keplerlabs/kepler/internal/transport/chi"
	openaiEmb "github.com/keplerlabs/kepler/internal/transport/openai"
	"github.com/keplerlabs/kepler/internal/usecase/combine"
	healthuc "github.com/keplerlabs/kepler/internal/usecase/health"
	resolveuc "github.com/keplerlabs/kepler/internal/usecase/resolve"
	"github.com/keplerlabs/kepler/internal/usecase/routing"
	"github.com/keplerlabs/kepler/internal/usecase/scoring"
	"github.com/keplerlabs/kepler/internal/usecase/websearch"
	"github.com/keplerlabs/kepler/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting kepler API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	// Create cache store based on driver
	var store db.Store
	switch cfg.Database.Driver {
	case "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create redis store", zap.Error(err))
		}
	case "memory":
		store = dbMemory.NewStore()
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Cache store not ready", zap.Error(err))
	}
	logger.Info("Connected to cache store")

	// Register metrics explicitly (no init())
	metrics.RegisterRetrievalMetrics()
	metrics.RegisterEmbeddingMetrics()

	// Optional embedder: without an API key the lexical paths take over.
	var embedder domain.Embedder
	if cfg.Embedding.APIKey != "" {
		embedder = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   "openai",
			Logger:     logger,
		})
		logger.Info("Embedder created", zap.String("model", cfg.Embedding.Model))
	} else {
		logger.Info("No embedding API key, using lexical scoring and keyword retrieval")
	}

	// Domain phrase table + scorer
	table, err := scoring.LoadPhraseTable(cfg.Domain.PhrasesPath)
	if err != nil {
		logger.Fatal("Failed to load domain phrase table", zap.Error(err))
	}
	lexical := scoring.NewLexicalMatcher(table)

	var semantic *scoring.SemanticMatcher
	if embedder != nil {
		semantic, err = scoring.NewSemanticMatcher(ctx, embedder, table)
		if err != nil {
			logger.Warn("Failed to embed domain phrases, falling back to lexical scoring", zap.Error(err))
			semantic = nil
		}
	}
	scorer := scoring.New(lexical, semantic, cfg.Retrieval.MaxLocalResults, logger)

	// Local knowledge corpus
	var docs []knowledge.Document
	if cfg.Retrieval.CorpusPath != "" {
		docs, err = knowledge.LoadCorpus(cfg.Retrieval.CorpusPath)
		if err != nil {
			logger.Fatal("Failed to load knowledge corpus", zap.Error(err))
		}
	}
	corpus := knowledge.New(docs, embedder, logger).
		WithMinSimilarity(cfg.Retrieval.MinSimilarity)
	logger.Info("Knowledge corpus loaded", zap.Int("documents", corpus.Len()))

	// External search: cache + rate limiter + client
	cache := webcache.New(
		store,
		time.Duration(cfg.WebSearch.CacheTTLHours)*time.Hour,
		metrics.WebSearchCacheTotal,
		logger,
	)
	limiter := websearch.NewLimiter(time.Duration(cfg.WebSearch.MinRequestDelayMS) * time.Millisecond)
	searcher := websearch.NewClient(websearch.Config{
		InstantURL:      cfg.WebSearch.InstantURL,
		HTMLURL:         cfg.WebSearch.HTMLURL,
		UserAgent:       cfg.WebSearch.UserAgent,
		MaxResults:      cfg.WebSearch.MaxResults,
		FetchTimeout:    time.Duration(cfg.WebSearch.FetchTimeoutSec) * time.Second,
		MaxContentChars: cfg.WebSearch.MaxContentChars,
	}, nil, cache, limiter, logger)

	// Orchestration service
	resolveSvc := resolveuc.New(corpus, searcher, scorer, resolveuc.Config{
		MaxLocalResults: cfg.Retrieval.MaxLocalResults,
		MaxWebResults:   cfg.WebSearch.MaxResults,
		Thresholds: routing.Thresholds{
			Low:         cfg.Routing.LowThreshold,
			High:        cfg.Routing.HighThreshold,
			DomainFloor: cfg.Routing.DomainFloor,
		},
		Combine: combine.Config{
			MaxResults:  cfg.Combine.MaxResults,
			ResultFloor: cfg.Combine.ResultFloor,
		},
	})

	// Health service
	var embChecker healthuc.EmbeddingChecker
	if hc, ok := embedder.(domain.HealthChecker); ok {
		embChecker = hc
	}
	healthSvc := healthuc.New(store, embChecker, corpus)

	server := chiTransport.NewServer(resolveSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
