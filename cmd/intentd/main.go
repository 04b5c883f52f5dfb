// Intentd is a multi-tenant intent-recognition daemon with HTTP transport.
//
// This binary starts the intentd HTTP server with full pipeline
// initialization: embeddings, optional vector-store persistence, the LLM
// fallback client, the result cache, and the async log sink.
//
// Configuration is loaded from environment variables and an optional YAML
// file. See internal/config for details.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/intentd/internal/config"
	"github.com/fyrsmithlabs/intentd/internal/coordinator"
	"github.com/fyrsmithlabs/intentd/internal/embeddings"
	"github.com/fyrsmithlabs/intentd/internal/fallback"
	"github.com/fyrsmithlabs/intentd/internal/httpapi"
	"github.com/fyrsmithlabs/intentd/internal/llmclient"
	"github.com/fyrsmithlabs/intentd/internal/logging"
	"github.com/fyrsmithlabs/intentd/internal/logsink"
	"github.com/fyrsmithlabs/intentd/internal/matcher"
	"github.com/fyrsmithlabs/intentd/internal/models"
	"github.com/fyrsmithlabs/intentd/internal/pipelinecache"
	"github.com/fyrsmithlabs/intentd/internal/qdrant"
	"github.com/fyrsmithlabs/intentd/internal/repository"
	"github.com/fyrsmithlabs/intentd/internal/resultcache"
	"github.com/fyrsmithlabs/intentd/internal/telemetry"
	"github.com/fyrsmithlabs/intentd/internal/vectorstore"
)

var (
	version   = "dev"
	gitCommit = "unknown"
)

func main() {
	args := os.Args[1:]
	if len(args) > 0 && args[0] == "version" {
		fmt.Printf("intentd by Fyrsmith Labs\nVersion: %s\nCommit:  %s\n", version, gitCommit)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
	log.Println("server shutdown complete")
}

func run(ctx context.Context) error {
	cfg, err := config.LoadWithFile("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	tel, err := telemetry.New(ctx, telemetry.FromObservability(cfg.Observability, version))
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() { _ = tel.Shutdown(context.Background()) }()

	logger, err := logging.NewLogger(logging.NewDefaultConfig(), tel.LoggerProvider())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info(ctx, "starting intentd", zap.Int("port", cfg.Server.Port))

	embedder, err := embeddings.NewProvider(embeddings.ProviderConfig{
		Provider: cfg.Embeddings.Provider,
		Model:    cfg.Embeddings.Model,
		BaseURL:  cfg.Embeddings.BaseURL,
		CacheDir: cfg.Embeddings.CacheDir,
	})
	if err != nil {
		if cfg.Embeddings.FallbackPolicy == "pseudo" {
			logger.Warn(ctx, "embeddings provider unavailable, using deterministic pseudo-embeddings", zap.Error(err))
			embedder = embeddings.NewPseudoProvider(0)
		} else {
			logger.Warn(ctx, "embeddings provider unavailable, semantic matcher disabled", zap.Error(err))
			embedder = nil
		}
	} else {
		defer embedder.Close()
	}

	llmClient := llmclient.NewClient(llmclient.Config{
		APIKey:             cfg.LLM.APIKey.Value(),
		BaseURL:            cfg.LLM.BaseURL,
		Model:              cfg.LLM.Model,
		RequestTimeout:     cfg.LLM.RequestTimeout,
		RateLimitPerSecond: cfg.LLM.RateLimitPerSecond,
	}, logger)
	llmClient.WarmUp(ctx)

	vecIndex := buildVectorIndex(cfg, logger)

	repo := repository.NewMemoryRepository()
	contexts := repository.NewContextCache(repo, repository.DefaultContextTTL)

	factory := func(app models.Application, semanticThreshold float64) []matcher.Matcher {
		return []matcher.Matcher{
			matcher.NewKeywordMatcher(app.EnableKeyword),
			matcher.NewRegexMatcher(app.EnableRegex, logger),
			matcher.NewSemanticMatcher(app.EnableSemantic, semanticThreshold, embedder, vecIndex),
			matcher.NewLLMMatcher(app.EnableLLMFallback, llmClient),
		}
	}
	pipes := pipelinecache.New(factory, cfg.Matching.SemanticSimilarityThreshold)

	if configPath, err := config.ResolveConfigPath(""); err != nil {
		logger.Warn(ctx, "could not resolve config path, hot-reload disabled", zap.Error(err))
	} else {
		watcher, err := config.WatchFile(configPath, func(newCfg *config.Config) {
			if newCfg.Matching.SemanticSimilarityThreshold != cfg.Matching.SemanticSimilarityThreshold {
				cfg.Matching.SemanticSimilarityThreshold = newCfg.Matching.SemanticSimilarityThreshold
				pipes.UpdateSemanticThreshold(ctx, newCfg.Matching.SemanticSimilarityThreshold)
				logger.Info(ctx, "config file changed, pipeline cache invalidated",
					zap.Float64("semantic_similarity_threshold", newCfg.Matching.SemanticSimilarityThreshold))
			}
		}, func(err error) {
			logger.Warn(ctx, "config watcher error", zap.Error(err))
		})
		if err != nil {
			logger.Warn(ctx, "config file watch unavailable, hot-reload disabled", zap.Error(err))
		} else {
			defer watcher.Close()
		}
	}

	var results *resultcache.Cache
	if cfg.Cache.Enabled {
		results = resultcache.New(cfg.Cache.RedisURL, cfg.Cache.Prefix, cfg.Cache.TTL, logger)
		defer results.Close()
	}

	sink := logsink.New(logsink.Config{
		QueueSize:     cfg.LogSink.QueueSize,
		DrainDeadline: cfg.LogSink.DrainDeadline,
		NATSEnabled:   cfg.LogSink.NATSEnabled,
		NATSURL:       cfg.LogSink.NATSURL,
		NATSSubject:   cfg.LogSink.NATSSubject,
	}, repo, logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.LogSink.DrainDeadline)
		defer cancel()
		_ = sink.Shutdown(shutdownCtx)
	}()

	fc := fallback.New(llmClient)
	coord := coordinator.New(contexts, repo, pipes, results, fc, sink, logger, cfg.LLM.EnableFallback)

	httpapi.RegisterCollectors(pipes, sink)

	srv := httpapi.NewServer(coord, logger, httpapi.Config{
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxBatchSize:    cfg.Matching.MaxBatchSize,
		APIKeyHeader:    cfg.Matching.APIKeyHeader,
	}, llmClient)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// buildVectorIndex selects the Semantic matcher's optional persistence
// backend per cfg.VectorStore.Provider.
func buildVectorIndex(cfg *config.Config, logger *logging.Logger) matcher.VectorIndex {
	switch cfg.VectorStore.Provider {
	case "qdrant":
		if !cfg.Qdrant.Enabled {
			return vectorstore.NewNoop()
		}
		client, err := qdrant.NewGRPCClient(&qdrant.ClientConfig{
			Host: cfg.Qdrant.Host,
			Port: cfg.Qdrant.Port,
		}, logger)
		if err != nil {
			logger.Warn(context.Background(), "qdrant unavailable, semantic persistence disabled", zap.Error(err))
			return vectorstore.NewNoop()
		}
		return vectorstore.NewQdrantIndex(client, cfg.Qdrant.CollectionPrefix)
	case "none":
		return vectorstore.NewNoop()
	default: // "chromem"
		idx, err := vectorstore.NewChromemIndex(cfg.VectorStore.Chromem.Path, cfg.VectorStore.Chromem.DefaultCollection)
		if err != nil {
			logger.Warn(context.Background(), "chromem unavailable, semantic persistence disabled", zap.Error(err))
			return vectorstore.NewNoop()
		}
		return idx
	}
}
