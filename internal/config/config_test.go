package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "perplexity", cfg.Providers.Search)
	assert.Equal(t, "perplexity", cfg.Providers.Extraction)
	assert.Equal(t, "anthropic", cfg.Providers.Synthesis)
	assert.Equal(t, "https://api.perplexity.ai", cfg.Perplexity.BaseURL)
	assert.Equal(t, "sonar-pro", cfg.Perplexity.Model)
	assert.Equal(t, 100.0, cfg.RateLimit.GlobalRPS)
	assert.Equal(t, 1.0, cfg.RateLimit.DomainRPS)
	assert.Equal(t, 20, cfg.Pipeline.SearchMaxResults)
	assert.Equal(t, "東京都", cfg.Pipeline.DefaultPrefecture)
	assert.Equal(t, 10, cfg.Batch.Size)
	assert.Equal(t, 3, cfg.Batch.MaxConcurrentCompanies)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
store:
  driver: sqlite
  sqlite_path: /tmp/test.db
providers:
  search: jina
  synthesis: openai
pipeline:
  default_prefecture: 大阪府
batch:
  size: 25
  cooldown_secs: 1
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "/tmp/test.db", cfg.Store.SQLitePath)
	assert.Equal(t, "jina", cfg.Providers.Search)
	assert.Equal(t, "openai", cfg.Providers.Synthesis)
	// Unset keys keep their defaults.
	assert.Equal(t, "perplexity", cfg.Providers.Extraction)
	assert.Equal(t, "大阪府", cfg.Pipeline.DefaultPrefecture)
	assert.Equal(t, 25, cfg.Batch.Size)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENRICH_LOG_LEVEL", "debug")
	t.Setenv("ENRICH_ANTHROPIC_KEY", "sk-ant-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "sk-ant-test", cfg.Anthropic.Key)
}

func TestLoad_EnvSecrets(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENRICH_STORE_DATABASE_URL", "postgres://enrich:pw@db:5432/enrich")
	t.Setenv("ENRICH_PERPLEXITY_KEY", "pplx-test")
	t.Setenv("ENRICH_JINA_KEY", "jina-test")
	t.Setenv("ENRICH_FIRECRAWL_KEY", "fc-test")
	t.Setenv("ENRICH_OPENAI_KEY", "sk-oa-test")
	t.Setenv("ENRICH_NOTION_TOKEN", "secret-notion")
	t.Setenv("ENRICH_NOTION_LEAD_DB", "db-123")
	t.Setenv("ENRICH_BATCH_RULES_PATH", "/etc/enrich/rules.yaml")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://enrich:pw@db:5432/enrich", cfg.Store.DatabaseURL)
	assert.Equal(t, "pplx-test", cfg.Perplexity.Key)
	assert.Equal(t, "jina-test", cfg.Jina.Key)
	assert.Equal(t, "fc-test", cfg.Firecrawl.Key)
	assert.Equal(t, "sk-oa-test", cfg.OpenAI.Key)
	assert.Equal(t, "secret-notion", cfg.Notion.Token)
	assert.Equal(t, "db-123", cfg.Notion.LeadDB)
	assert.Equal(t, "/etc/enrich/rules.yaml", cfg.Batch.RulesPath)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [not a map"), 0o644))
	t.Chdir(dir)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read file")
}

func TestRetryAndCircuitPolicies(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	retry := cfg.RetryPolicy()
	assert.Equal(t, 3, retry.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, retry.InitialBackoff)
	assert.Equal(t, 30*time.Second, retry.MaxBackoff)

	circuit := cfg.CircuitPolicy()
	assert.Equal(t, 5, circuit.FailureThreshold)
	assert.Equal(t, 30*time.Second, circuit.ResetTimeout)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
