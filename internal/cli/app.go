package cli

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"careerpath/config"
	"careerpath/internal/adapter/cache"
	"careerpath/internal/adapter/embedding"
	"careerpath/internal/adapter/fs"
	"careerpath/internal/adapter/graph"
	"careerpath/internal/adapter/llm"
	"careerpath/internal/adapter/store"
	"careerpath/internal/domain"
	"careerpath/internal/port"
	"careerpath/internal/usecase"
)

// app holds the handles a command opened. Close releases them in reverse order.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	graph   port.GraphStore
	vectors *store.VectorStore
	encoder port.Encoder
	cache   port.MatchCache
	llm     port.LLM

	closers []func() error
}

type needs struct {
	graph   bool
	vectors bool
	llm     bool
	// lazyLLM defers building the model to its first use, so a missing key
	// only fails the requests that need extraction.
	lazyLLM bool
}

func openApp(ctx context.Context, n needs) (*app, error) {
	cfg := GetConfig()
	a := &app{cfg: cfg, logger: log}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}

	if err := config.EnsureDataDir(GetRootDir()); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if n.graph {
		g, err := graph.Open(ctx, cfg.Graph, GetRootDir())
		if err != nil {
			return nil, fmt.Errorf("failed to open graph store: %w", err)
		}
		a.graph = g
		a.closers = append(a.closers, g.Close)
	}

	if n.vectors {
		vs, err := store.Open(config.ResolvePath(GetRootDir(), cfg.Index.Path))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open index: %w", err)
		}
		a.vectors = vs
		a.closers = append(a.closers, vs.Close)

		enc, err := embedding.New(cfg.Embedding)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create encoder: %w", err)
		}
		a.encoder = enc
		a.cache = a.newCache()
	}

	if n.lazyLLM {
		a.llm = llm.NewLazy(ctx, cfg.LLM)
	} else if n.llm {
		model, err := llm.New(ctx, cfg.LLM)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create language model: %w", err)
		}
		a.llm = model
	}

	return a, nil
}

func (a *app) newCache() port.MatchCache {
	switch strings.ToLower(a.cfg.Cache.Backend) {
	case "redis":
		r := cache.NewRedis(a.cfg.Cache.RedisAddr, config.Secret(a.cfg.Cache.RedisPasswordEnv), a.cfg.Cache.TTL, a.logger)
		a.closers = append(a.closers, r.Close)
		return r
	case "none", "off":
		return cache.Nop{}
	default:
		return cache.NewQueryCache(a.cfg.Cache.MaxSize, a.cfg.Cache.TTL)
	}
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}

// warnIfStale logs when the job index was built by a different encoder.
func (a *app) warnIfStale() {
	if a.vectors == nil || a.encoder == nil {
		return
	}
	reason, err := a.vectors.StaleReason(domain.JobRolesCollection, a.encoder.ModelName(), a.encoder.Dimension())
	if err == nil && reason != "" {
		a.logger.Warn("job index is stale, run `careerpath index`", zap.String("reason", reason))
	}
}

func (a *app) matchUseCase() *usecase.MatchUseCase {
	a.warnIfStale()
	return usecase.NewMatchUseCase(a.vectors, a.graph, a.encoder, a.cache, a.cfg.Match, a.logger)
}

func (a *app) ingestUseCase() *usecase.IngestUseCase {
	return usecase.NewIngestUseCase(
		a.graph, a.vectors, a.encoder, a.cache,
		fs.NewWalker(nil, nil),
		a.cfg.Ingest.BatchSize, a.cfg.Embedding.BatchSize,
		a.logger,
	)
}

func (a *app) advisorUseCase() *usecase.AdvisorUseCase {
	extract := usecase.NewExtractUseCase(a.llm, a.cfg.LLM.Timeout, a.logger)
	return usecase.NewAdvisorUseCase(a.matchUseCase(), extract, a.graph, a.logger)
}
