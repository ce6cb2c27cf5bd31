package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reformhub/internal/cache"
	"github.com/kailas-cloud/reformhub/internal/config"
	"github.com/kailas-cloud/reformhub/internal/db"
	"github.com/kailas-cloud/reformhub/internal/db/memory"
	dbRedis "github.com/kailas-cloud/reformhub/internal/db/redis"
	"github.com/kailas-cloud/reformhub/internal/db/weaviate"
	"github.com/kailas-cloud/reformhub/internal/domain"
	logpkg "github.com/kailas-cloud/reformhub/internal/logger"
	"github.com/kailas-cloud/reformhub/internal/metrics"
	"github.com/kailas-cloud/reformhub/internal/repository/embcache"
	resourcerepo "github.com/kailas-cloud/reformhub/internal/repository/resource"
	"github.com/kailas-cloud/reformhub/internal/resilience"
	chiTransport "github.com/kailas-cloud/reformhub/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/reformhub/internal/transport/openai"
	"github.com/kailas-cloud/reformhub/internal/transport/pagefetch"
	"github.com/kailas-cloud/reformhub/internal/transport/r2"
	"github.com/kailas-cloud/reformhub/internal/usecase/aggregate"
	"github.com/kailas-cloud/reformhub/internal/usecase/contribution"
	facetsuc "github.com/kailas-cloud/reformhub/internal/usecase/facets"
	healthuc "github.com/kailas-cloud/reformhub/internal/usecase/health"
	"github.com/kailas-cloud/reformhub/internal/usecase/imageupload"
	"github.com/kailas-cloud/reformhub/internal/usecase/preview"
	"github.com/kailas-cloud/reformhub/internal/usecase/related"
	searchuc "github.com/kailas-cloud/reformhub/internal/usecase/search"
	"github.com/kailas-cloud/reformhub/internal/version"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic("failed to load .env: " + err.Error())
	}
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

	logger.Info("Starting reformhub API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("weaviate_host", cfg.Weaviate.Host),
		zap.String("cache_driver", cfg.Cache.Driver),
	)

	metrics.RegisterAppMetrics()
	metrics.RegisterEmbeddingMetrics()

	kv, err := newKVStore(&cfg.Cache)
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.Error(err))
	}
	defer kv.Close()

	// Document store
	headers := map[string]string{}
	if cfg.Weaviate.OpenAIKey != "" {
		headers["X-OpenAI-Api-Key"] = cfg.Weaviate.OpenAIKey
	}
	store, err := weaviate.New(weaviate.Config{
		Host:    cfg.Weaviate.Host,
		Scheme:  cfg.Weaviate.Scheme,
		APIKey:  cfg.Weaviate.APIKey,
		Headers: headers,
		Timeout: config.Seconds(cfg.Weaviate.TimeoutSec),
	})
	if err != nil {
		logger.Fatal("Failed to create weaviate client", zap.Error(err))
	}

	ctx := context.Background()
	if cfg.Weaviate.ReadinessTimeout > 0 {
		if err := store.WaitForReady(ctx, config.Seconds(cfg.Weaviate.ReadinessTimeout)); err != nil {
			logger.Fatal("Weaviate not ready", zap.Error(err))
		}
		logger.Info("Connected to weaviate")
	}

	guard := resilience.NewExecutor(resilienceConfig(&cfg.Resilience), metrics.BreakerTransitionsTotal, logger)
	repo := resourcerepo.New(store, guard, cfg.Weaviate.Class, resourcerepo.NewMapper(time.Now))

	// Caches: one service per entry lifetime, all on the shared KV backend.
	facetCache := cache.New(kv, cache.Config{
		TTL:      config.Seconds(cfg.Cache.FacetsTTLSec),
		StaleFor: config.Seconds(cfg.Cache.FacetsStaleSec),
	}, time.Now, metrics.CacheLookupsTotal, logger)
	sessionCache := cache.New(kv, cache.Config{TTL: config.Seconds(cfg.Cache.SessionTTLSec)},
		time.Now, metrics.CacheLookupsTotal, logger)
	previewCache := cache.New(kv, cache.Config{TTL: config.Seconds(cfg.Cache.PreviewTTLSec)},
		time.Now, metrics.CacheLookupsTotal, logger)
	defer func() {
		facetCache.Wait()
		sessionCache.Wait()
		previewCache.Wait()
	}()

	// Pass nil interfaces (not typed nil pointers) for disabled integrations.
	var queryEmbedder searchuc.Embedder
	var embeddingChecker healthuc.EmbeddingChecker
	if cfg.EmbeddingEnabled() {
		base, embedder := buildEmbedder(&cfg.Embedding, kv, logger)
		queryEmbedder = embedder
		embeddingChecker = base
		logger.Info("Query embedder enabled",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("model", cfg.Embedding.Model),
		)
	}

	searchSvc := searchuc.New(repo, queryEmbedder, config.Seconds(cfg.Search.TimeoutSec),
		metrics.SearchDegradedTotal, logger)
	facetSvc := facetsuc.New(repo, facetCache, cfg.Search.FacetSampleSize)
	freezer := aggregate.NewFreezer(sessionCache)

	fetcher := buildFetcher(&cfg.Fetch, logger)
	previewSvc := preview.New(fetcher, previewCache, config.Seconds(cfg.Fetch.TimeoutSec),
		metrics.PreviewsTotal, logger)
	relatedSvc := related.New(repo, searchSvc, previewSvc, cfg.Search.RelatedConcurrency)
	contributionSvc := contribution.New(repo, time.Now, metrics.ContributionsTotal, logger)

	var objects imageupload.ObjectStore
	if cfg.R2Enabled() {
		bucket, err := r2.New(ctx, r2.Config{
			Endpoint:        cfg.R2.Endpoint,
			Region:          cfg.R2.Region,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			Bucket:          cfg.R2.Bucket,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
		})
		if err != nil {
			logger.Fatal("Failed to create object storage client", zap.Error(err))
		}
		objects = bucket
		logger.Info("Image uploads enabled", zap.String("bucket", cfg.R2.Bucket))
	}
	uploadSvc := imageupload.New(repo, fetcher, objects, metrics.ImageUploadsTotal, logger)

	healthSvc := healthuc.New(store, kv, embeddingChecker)

	// Warm the facet catalog so the first visitor does not pay for the sample query.
	go func() {
		warmCtx, cancel := context.WithTimeout(ctx, config.Seconds(cfg.Search.TimeoutSec))
		defer cancel()
		if err := facetSvc.Refresh(warmCtx); err != nil {
			logger.Warn("Facet warm-up failed", zap.Error(err))
		}
	}()

	server := chiTransport.NewServer(chiTransport.Deps{
		Search:        searchSvc,
		Freezer:       freezer,
		Catalog:       facetSvc,
		Resources:     repo,
		Related:       relatedSvc,
		Contributions: contributionSvc,
		Previews:      previewSvc,
		Images:        uploadSvc,
		Health:        healthSvc,
	}, cfg.HTTP.MaxBodyBytes, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger),
		ReadTimeout:  config.Seconds(cfg.HTTP.ReadTimeoutSec),
		WriteTimeout: config.Seconds(cfg.HTTP.WriteTimeoutSec),
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Seconds(cfg.HTTP.ShutdownSec))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func newKVStore(cfg *config.CacheConfig) (db.KVStore, error) {
	switch cfg.Driver {
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory", "":
		return memory.NewStore(time.Now), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

func resilienceConfig(cfg *config.ResilienceConfig) resilience.Config {
	enabled := cfg.BreakerEnabled == nil || *cfg.BreakerEnabled
	return resilience.Config{
		RetryMaxAttempts:    cfg.RetryMaxAttempts,
		RetryInitialBackoff: time.Duration(cfg.RetryInitialBackoffMs) * time.Millisecond,
		RetryMaxBackoff:     time.Duration(cfg.RetryMaxBackoffMs) * time.Millisecond,
		BreakerEnabled:      enabled,
		BreakerMinRequests:  cfg.BreakerMinRequests,
		BreakerFailureRatio: cfg.BreakerFailureRatio,
		BreakerOpenTimeout:  config.Seconds(cfg.BreakerOpenSec),
	}
}

// buildFetcher assembles plain HTTP with an optional headless browser fallback.
func buildFetcher(cfg *config.FetchConfig, logger *zap.Logger) pagefetch.Fetcher {
	plain := pagefetch.NewHTTPFetcher(pagefetch.HTTPConfig{
		Timeout:       config.Seconds(cfg.TimeoutSec),
		MaxBytes:      cfg.MaxBytes,
		UserAgent:     cfg.UserAgent,
		RatePerSecond: cfg.RatePerSecond,
		Burst:         cfg.Burst,
	})
	var secondary pagefetch.Fetcher
	if cfg.BrowserURL != "" {
		secondary = pagefetch.NewBrowserFetcher(cfg.BrowserURL, config.Seconds(cfg.TimeoutSec))
	}
	return pagefetch.NewFallbackFetcher(plain, secondary, metrics.PageFetchesTotal, logger)
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instruction.
// The bare provider is returned separately for health checks.
func buildEmbedder(cfg *config.EmbeddingConfig, kv db.KVStore, logger *zap.Logger) (*openaiEmb.Embedder, domain.Embedder) {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     logger,
	})

	namespace := cfg.Model
	if cfg.Dimensions > 0 {
		namespace = fmt.Sprintf("%s:%d", cfg.Model, cfg.Dimensions)
	}
	var embedder domain.Embedder = embcache.New(base, kv, namespace,
		time.Duration(cfg.CacheTTLHours)*time.Hour, metrics.EmbeddingCacheTotal, logger)

	// Instruction prefix is outermost so the cache key includes it.
	if cfg.QueryInstruction != "" {
		return base, domain.NewInstructionEmbedder(embedder, cfg.QueryInstruction)
	}
	return base, embedder
}
