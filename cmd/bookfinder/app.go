package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bookfinder-io/bookfinder/internal/cache/redis"
	"github.com/bookfinder-io/bookfinder/internal/config"
	"github.com/bookfinder-io/bookfinder/internal/domain"
	"github.com/bookfinder-io/bookfinder/internal/index"
	"github.com/bookfinder-io/bookfinder/internal/ingest"
	logpkg "github.com/bookfinder-io/bookfinder/internal/logger"
	"github.com/bookfinder-io/bookfinder/internal/metrics"
	"github.com/bookfinder-io/bookfinder/internal/repository/books"
	"github.com/bookfinder-io/bookfinder/internal/repository/embcache"
	cataloguc "github.com/bookfinder-io/bookfinder/internal/usecase/catalog"
	healthuc "github.com/bookfinder-io/bookfinder/internal/usecase/health"
	indexeruc "github.com/bookfinder-io/bookfinder/internal/usecase/indexer"
	searchuc "github.com/bookfinder-io/bookfinder/internal/usecase/search"
	openaiEmb "github.com/bookfinder-io/bookfinder/internal/vectorizer/openai"
)

// app is the composition root shared by the serve command and the
// one-shot maintenance commands.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	repo     *books.Repository
	cache    *redis.Client
	embedder domain.Embedder
	holder   *index.Holder
	builder  *index.Builder
	indexer  *indexeruc.Service
	catalog  *cataloguc.Service
	search   *searchuc.Service
	health   *healthuc.Service
	pipeline *ingest.Pipeline
}

// newApp loads config, connects storage, and wires every service.
func newApp(ctx context.Context) (*app, error) {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	metrics.Register()

	repo, err := books.Open(ctx, cfg.Storage.DatabasePath)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("open catalog database: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, repo: repo}

	a.embedder, a.cache, err = buildEmbedder(cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.holder = index.NewHolder()
	a.builder = index.NewBuilder(a.embedder, a.holder, index.Options{
		TruncationLength: cfg.Search.TruncationLength,
		TFIDFMaxFeatures: cfg.Search.TFIDFMaxFeatures,
		Precision:        cfg.Search.VectorPrecision,
		Model:            cfg.Embedding.Model,
	}, logger)

	a.indexer = indexeruc.New(
		repo, a.builder, a.holder,
		cfg.Storage.IndexDir, cfg.Search.VectorPrecision, logger,
	)
	a.catalog = cataloguc.New(repo)
	a.search = searchuc.New(a.holder, a.embedder)
	a.health = healthuc.New(repo, embeddingHealthChecker{a.embedder}, a.holder)
	a.pipeline = ingest.NewPipeline(repo, cfg.Storage.DataDir, logger)

	return a, nil
}

// Close releases storage handles and flushes logs.
func (a *app) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
	if a.repo != nil {
		_ = a.repo.Close()
	}
	_ = a.logger.Sync()
}

// buildEmbedder assembles the provider chain: OpenAI-compatible base,
// optionally wrapped by the Redis cache decorator.
func buildEmbedder(cfg config.Config, logger *zap.Logger) (domain.Embedder, *redis.Client, error) {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	if len(cfg.Cache.Addrs) == 0 {
		return base, nil, nil
	}

	cache, err := redis.NewClient(redis.Config{
		Addrs:    cfg.Cache.Addrs,
		Password: cfg.Cache.Password,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect embedding cache: %w", err)
	}

	ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
	cached := embcache.New(base, cache, ttl, metrics.EmbeddingCacheTotal, logger)
	logger.Info("Embedding cache enabled",
		zap.Strings("addrs", cfg.Cache.Addrs),
		zap.Duration("ttl", ttl),
	)
	return cached, cache, nil
}

// embeddingHealthChecker adapts domain.Embedder to health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func (h embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
