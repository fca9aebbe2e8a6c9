// Package pipeline drives the three-phase enrichment flow for one company:
// candidate URL discovery, field extraction, and record synthesis with
// deterministic repair.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/leadlab/enrich-cli/internal/model"
	"github.com/leadlab/enrich-cli/internal/provider"
)

// Config bounds the per-phase work.
type Config struct {
	// SearchMaxResults is the result cap requested from the search provider.
	SearchMaxResults int `yaml:"search_max_results" mapstructure:"search_max_results"`

	// CategoryLimit caps candidate URLs kept per category.
	CategoryLimit int `yaml:"category_limit" mapstructure:"category_limit"`

	// ExtractURLLimit caps the URLs handed to the extraction provider.
	ExtractURLLimit int `yaml:"extract_url_limit" mapstructure:"extract_url_limit"`

	// DefaultPrefecture is the last resort of the prefecture derivation chain.
	DefaultPrefecture string `yaml:"default_prefecture" mapstructure:"default_prefecture"`
}

// DefaultConfig returns the production limits.
func DefaultConfig() Config {
	return Config{
		SearchMaxResults:  20,
		CategoryLimit:     5,
		ExtractURLLimit:   5,
		DefaultPrefecture: "東京都",
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.SearchMaxResults <= 0 {
		c.SearchMaxResults = def.SearchMaxResults
	}
	if c.CategoryLimit <= 0 {
		c.CategoryLimit = def.CategoryLimit
	}
	if c.ExtractURLLimit <= 0 {
		c.ExtractURLLimit = def.ExtractURLLimit
	}
	if c.DefaultPrefecture == "" {
		c.DefaultPrefecture = def.DefaultPrefecture
	}
	return c
}

// Pipeline enriches one company at a time. Safe for concurrent use; all state
// is per-call.
type Pipeline struct {
	search    provider.SearchProvider
	extract   provider.ExtractionProvider
	synthesis provider.SynthesisProvider
	cfg       Config
	rules     Rules

	nowFunc func() time.Time
}

// New assembles a Pipeline from the configured providers.
func New(search provider.SearchProvider, extract provider.ExtractionProvider, synthesis provider.SynthesisProvider, cfg Config, rules Rules) *Pipeline {
	return &Pipeline{
		search:    search,
		extract:   extract,
		synthesis: synthesis,
		cfg:       cfg.withDefaults(),
		rules:     rules.withDefaults(),
		nowFunc:   time.Now,
	}
}

// Run executes all three phases for one company and always returns a record
// to persist. The error is non-nil only when ctx ended the run early.
func (p *Pipeline) Run(ctx context.Context, in model.CompanyInput) (*model.EnrichedRecord, error) {
	log := zap.L().With(zap.String("website", in.Website), zap.String("company", in.Name))
	log.Info("pipeline starting", zap.String("stage", string(model.StagePending)))

	urls := p.runSearch(ctx, in)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Info("candidate urls collected",
		zap.String("stage", string(model.StageSearched)),
		zap.Int("total", urls.Total()),
	)

	fields := p.runExtract(ctx, in, urls)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Info("fields extracted",
		zap.String("stage", string(model.StageExtracted)),
		zap.Int("elements", fields.ElementCount()),
	)

	record := p.runSynthesize(ctx, in, urls, fields)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Info("record synthesized",
		zap.String("stage", string(model.StageSynthesized)),
		zap.String("status", string(record.Status)),
	)
	return record, nil
}
