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
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/serendip/internal/config"
	"github.com/kailas-cloud/serendip/internal/db"
	dbValkey "github.com/kailas-cloud/serendip/internal/db/valkey"
	"github.com/kailas-cloud/serendip/internal/domain"
	logpkg "github.com/kailas-cloud/serendip/internal/logger"
	"github.com/kailas-cloud/serendip/internal/metrics"
	connreqrepo "github.com/kailas-cloud/serendip/internal/repository/connectionrequest"
	"github.com/kailas-cloud/serendip/internal/repository/embcache"
	feedbackrepo "github.com/kailas-cloud/serendip/internal/repository/feedback"
	impressionrepo "github.com/kailas-cloud/serendip/internal/repository/impression"
	matchrepo "github.com/kailas-cloud/serendip/internal/repository/match"
	opportunityrepo "github.com/kailas-cloud/serendip/internal/repository/opportunity"
	personrepo "github.com/kailas-cloud/serendip/internal/repository/person"
	relationshiprepo "github.com/kailas-cloud/serendip/internal/repository/relationship"
	chiTransport "github.com/kailas-cloud/serendip/internal/transport/chi"
	geminiGen "github.com/kailas-cloud/serendip/internal/transport/gemini"
	openaiTransport "github.com/kailas-cloud/serendip/internal/transport/openai"
	connrequc "github.com/kailas-cloud/serendip/internal/usecase/connectionrequest"
	embeddinguc "github.com/kailas-cloud/serendip/internal/usecase/embedding"
	"github.com/kailas-cloud/serendip/internal/usecase/graph"
	healthuc "github.com/kailas-cloud/serendip/internal/usecase/health"
	impressionuc "github.com/kailas-cloud/serendip/internal/usecase/impression"
	matchinguc "github.com/kailas-cloud/serendip/internal/usecase/matching"
	opportunityuc "github.com/kailas-cloud/serendip/internal/usecase/opportunity"
	profileuc "github.com/kailas-cloud/serendip/internal/usecase/profile"
	rankinguc "github.com/kailas-cloud/serendip/internal/usecase/ranking"
	"github.com/kailas-cloud/serendip/internal/version"
)

func main() {
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

	logger.Info("Starting serendip API server",
		zap.String("commit", version.Commit),
		zap.String("build_date", version.Date),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("ranking_provider", cfg.Ranking.Provider),
	)

	store, err := dbValkey.NewStore(dbValkey.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterMatchingMetrics()

	// Both embedders share one limiter: the provider quota is per key, not per instruction.
	embLimiter := newLimiter(cfg.Embedding.RatePerSec, cfg.Embedding.Burst)
	docEmbedder := buildEmbedder(&cfg.Embedding, cfg.Embedding.DocumentInstruction, store, embLimiter, logger)
	queryEmbedder := buildEmbedder(&cfg.Embedding, cfg.Embedding.QueryInstruction, store, embLimiter, logger)
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	generator, err := buildGenerator(ctx, &cfg.Ranking, logger)
	if err != nil {
		logger.Fatal("Failed to create generator", zap.Error(err))
	}

	// Repositories
	personRepo := personrepo.New(store, cfg.Embedding.Dimensions).WithHNSW(personrepo.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	relRepo := relationshiprepo.New(store)
	oppRepo := opportunityrepo.New(store)
	matchRepo := matchrepo.New(store)
	fbRepo := feedbackrepo.New(store)
	reqRepo := connreqrepo.New(store)
	impCache := impressionrepo.NewCache(store, time.Duration(cfg.Impression.CacheTTLSec)*time.Second)

	// Use cases
	profileSvc := profileuc.New(personRepo, docEmbedder, queryEmbedder, logger)
	if err := profileSvc.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure profile index", zap.Error(err))
	}
	graphSvc := graph.New(relRepo, profileSvc, logger)

	var oracle rankinguc.Oracle
	if generator != nil {
		oracle = rankinguc.NewLLMOracle(generator, newLimiter(cfg.Ranking.RatePerSec, cfg.Ranking.Burst), logger)
	}
	stage := rankinguc.NewStage(oracle, time.Duration(cfg.Ranking.TimeoutMs)*time.Millisecond, logger)

	matchingSvc := matchinguc.New(profileSvc, graphSvc, profileSvc, stage, matchRepo, matchinguc.Options{
		DefaultTopK: cfg.Matching.DefaultTopK,
		MaxTopK:     cfg.Matching.MaxTopK,
	}, logger)
	oppSvc := opportunityuc.New(oppRepo, profileSvc, matchingSvc, logger)
	impressionSvc := impressionuc.New(fbRepo, impCache, profileSvc, generator, logger).
		WithTimeout(time.Duration(cfg.Impression.TimeoutMs) * time.Millisecond)
	requestSvc := connrequc.New(reqRepo, profileSvc, oppRepo, graphSvc, logger)

	var rankingChecker healthuc.Checker
	if generator != nil {
		rankingChecker = newProviderChecker("ranking", generator)
	}
	healthSvc := healthuc.New(store, newProviderChecker("embedding", docEmbedder), rankingChecker, logger)

	server := chiTransport.NewServer(profileSvc, graphSvc, oppSvc, impressionSvc, requestSvc, healthSvc, logger)

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

// limiter is satisfied by *rate.Limiter and by every package-local Limiter contract.
type limiter interface {
	Wait(ctx context.Context) error
}

// newLimiter returns nil when ratePerSec is 0 (unlimited).
// Returns the interface type so callers never see a typed nil pointer.
func newLimiter(ratePerSec float64, burst int) limiter {
	if ratePerSec <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(ratePerSec), burst)
}

// providerChecker adapts an upstream provider to health.Checker.
type providerChecker struct {
	name   string
	target any
}

func newProviderChecker(name string, target any) *providerChecker {
	return &providerChecker{name: name, target: target}
}

func (h *providerChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.target.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s health check: %w", h.name, err)
		}
	}
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction
func buildEmbedder(
	embCfg *config.EmbeddingConfig,
	instruction string,
	store db.KVStore,
	limiter embeddinguc.Limiter,
	logger *zap.Logger,
) domain.Embedder {
	// Base provider (with transport metrics built-in)
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     embCfg.APIKey,
		BaseURL:    embCfg.BaseURL,
		Model:      embCfg.Model,
		Dimensions: embCfg.Dimensions,
		Provider:   embCfg.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if embCfg.Cache {
		namespace := fmt.Sprintf("%s:%d", embCfg.Model, embCfg.Dimensions)
		embedder = embcache.New(base, store, namespace,
			time.Duration(embCfg.CacheTTLSec)*time.Second, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, embCfg.Provider, embCfg.Model, limiter, logger)

	// Instruction prefix (outermost, so the cache key includes the instruction)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}

// buildGenerator returns nil for provider "none"; ranking then always uses the fallback.
func buildGenerator(ctx context.Context, rankCfg *config.RankingConfig, logger *zap.Logger) (domain.Generator, error) {
	switch rankCfg.Provider {
	case config.RankingProviderOpenAI:
		return openaiTransport.NewGenerator(&openaiTransport.Config{
			APIKey:   rankCfg.APIKey,
			BaseURL:  rankCfg.BaseURL,
			Model:    rankCfg.Model,
			Provider: rankCfg.Provider,
			Logger:   logger,
		}, rankCfg.MaxTokens, rankCfg.Temperature), nil
	case config.RankingProviderGemini:
		gen, err := geminiGen.NewGenerator(ctx, &geminiGen.Config{
			APIKey:      rankCfg.APIKey,
			Model:       rankCfg.Model,
			MaxTokens:   rankCfg.MaxTokens,
			Temperature: rankCfg.Temperature,
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini generator: %w", err)
		}
		return gen, nil
	default:
		return nil, nil
	}
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
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorCodeInternalError,
						Message: "internal error",
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

			ctx, reqLogger := logpkg.WithRequest(r.Context(), logger, requestID)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
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
