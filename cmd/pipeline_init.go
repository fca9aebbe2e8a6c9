package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/leadlab/enrich-cli/internal/dispatch"
	"github.com/leadlab/enrich-cli/internal/pipeline"
	"github.com/leadlab/enrich-cli/internal/provider"
	"github.com/leadlab/enrich-cli/internal/ratelimit"
	"github.com/leadlab/enrich-cli/internal/store"
	anthropicpkg "github.com/leadlab/enrich-cli/pkg/anthropic"
	"github.com/leadlab/enrich-cli/pkg/firecrawl"
	"github.com/leadlab/enrich-cli/pkg/jina"
	"github.com/leadlab/enrich-cli/pkg/notion"
	"github.com/leadlab/enrich-cli/pkg/openai"
	"github.com/leadlab/enrich-cli/pkg/perplexity"
)

// pipelineEnv holds the initialized store, clients, and pipeline shared by
// the run/batch/serve commands.
type pipelineEnv struct {
	Store      store.Store
	Pipeline   *pipeline.Pipeline
	Dispatcher *dispatch.Dispatcher
	Notion     notion.Client // nil when not configured
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore opens the configured database backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store.database_url is required for the postgres driver")
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
	case "sqlite":
		return store.NewSQLite(cfg.Store.SQLitePath)
	default:
		return nil, eris.Errorf("unknown store driver %q (want postgres or sqlite)", cfg.Store.Driver)
	}
}

// initPipeline sets up the store, the shared guard, all provider clients, and
// the pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	// One guard for every provider so the global token bucket is shared.
	guard := provider.NewGuard(
		ratelimit.New(cfg.RateLimit),
		cfg.RetryPolicy(),
		cfg.CircuitPolicy(),
	)

	perplexityClient := perplexity.NewClient(cfg.Perplexity.Key,
		perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
		perplexity.WithModel(cfg.Perplexity.Model),
	)
	jinaClient := jina.NewClient(cfg.Jina.Key,
		jina.WithReaderBaseURL(cfg.Jina.BaseURL),
		jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL),
	)
	firecrawlClient := firecrawl.NewClient(cfg.Firecrawl.Key,
		firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL),
	)
	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
	openaiClient := openai.NewClient(cfg.OpenAI.Key,
		openai.WithBaseURL(cfg.OpenAI.BaseURL),
		openai.WithModel(cfg.OpenAI.Model),
	)

	registry := provider.NewRegistry()
	perplexityProvider := provider.NewPerplexity(perplexityClient, guard, cfg.Perplexity.Model)
	registry.RegisterSearch("perplexity", perplexityProvider)
	registry.RegisterSearch("jina", provider.NewJina(jinaClient, guard))
	registry.RegisterExtraction("perplexity", perplexityProvider)
	registry.RegisterExtraction("local", provider.NewLocal(jinaClient, firecrawlClient, guard))
	registry.RegisterSynthesis("anthropic", provider.NewAnthropic(anthropicClient, guard, cfg.Anthropic.Model))
	registry.RegisterSynthesis("openai", provider.NewOpenAI(openaiClient, guard, cfg.OpenAI.Model))

	search, err := registry.Search(cfg.Providers.Search)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	extraction, err := registry.Extraction(cfg.Providers.Extraction)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	synthesis, err := registry.Synthesis(cfg.Providers.Synthesis)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	rules := pipeline.DefaultRules()
	if cfg.Batch.RulesPath != "" {
		rules, err = pipeline.LoadRules(cfg.Batch.RulesPath)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		zap.L().Info("pain hypothesis rules loaded", zap.String("path", cfg.Batch.RulesPath))
	}

	var notionClient notion.Client
	if cfg.Notion.Token != "" {
		notionClient = notion.NewClient(cfg.Notion.Token)
	}

	p := pipeline.New(search, extraction, synthesis, cfg.Pipeline, rules)
	d := dispatch.NewDispatcher(p, st, cfg.Batch.MaxConcurrentCompanies)

	zap.L().Info("pipeline initialized",
		zap.String("search", cfg.Providers.Search),
		zap.String("extraction", cfg.Providers.Extraction),
		zap.String("synthesis", cfg.Providers.Synthesis),
		zap.String("store", cfg.Store.Driver),
	)

	return &pipelineEnv{
		Store:      st,
		Pipeline:   p,
		Dispatcher: d,
		Notion:     notionClient,
	}, nil
}
