package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/matsen/depgraph/internal/classify"
	"github.com/matsen/depgraph/internal/config"
	"github.com/matsen/depgraph/internal/content"
	"github.com/matsen/depgraph/internal/graph"
	"github.com/matsen/depgraph/internal/s2"
)

// stack holds the wired components needed to build dependency graphs.
type stack struct {
	builder  *graph.Builder
	provider *s2.Client
	cache    *content.Cache
	log      *zap.Logger
}

// Close releases resources held by the stack.
func (s *stack) Close() {
	if s.cache != nil {
		s.cache.Close()
	}
	if s.log != nil {
		_ = s.log.Sync()
	}
}

// newStack wires the metadata client, content resolver, classifier and
// graph builder from configuration. maxDepth overrides the configured
// depth when non-negative.
func newStack(ctx context.Context, cfg *config.Config, maxDepth int) (*stack, error) {
	log, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	var s2Opts []s2.ClientOption
	if cfg.S2APIKey != "" {
		s2Opts = append(s2Opts, s2.WithAPIKey(cfg.S2APIKey))
	}
	provider := s2.NewClient(s2Opts...)

	cache, err := content.OpenCache(cfg.CachePath)
	if err != nil {
		return nil, fmt.Errorf("opening content cache: %w", err)
	}

	resolver := content.NewResolver(cache,
		content.WithUnpaywallEmail(cfg.UnpaywallEmail),
		content.WithCoreAPIKey(cfg.CoreAPIKey),
		content.WithLogger(log),
	)

	oracle, err := classify.NewGeminiOracle(ctx, cfg.GeminiAPIKey, "")
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	classifier := classify.NewClassifier(oracle, classify.WithLogger(log))

	if maxDepth < 0 {
		maxDepth = cfg.MaxDepth
	}
	builder := graph.NewBuilder(provider, resolver, classifier,
		graph.WithMaxDepth(maxDepth),
		graph.WithLogger(log),
	)

	return &stack{builder: builder, provider: provider, cache: cache, log: log}, nil
}
