package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chtemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
}

func TestLoadDefaults(t *testing.T) {
	chtemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.Tenant.ID)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "intel.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "https://google.serper.dev", cfg.Serper.BaseURL)
	assert.Equal(t, "https://brasilapi.com.br/api/cnpj/v1", cfg.Registry.BaseURL)
	assert.InDelta(t, 1_000_000, cfg.Analysis.DefaultOwnCapital, 0.001)
	assert.InDelta(t, 0.6, cfg.Analysis.MatchThreshold, 0.001)
	assert.InDelta(t, 0.9, cfg.Analysis.ExactThreshold, 0.001)
	assert.InDelta(t, 0.50, cfg.Rank.Weights.Semantic, 0.001)
	assert.InDelta(t, 0.25, cfg.Rank.Weights.Position, 0.001)
	assert.InDelta(t, 0.15, cfg.Rank.Weights.Title, 0.001)
	assert.InDelta(t, 0.10, cfg.Rank.Weights.Snippet, 0.001)
	assert.Equal(t, 1000, cfg.Enrich.MinIntervalMs)
	assert.Equal(t, 2, cfg.Enrich.Concurrency)
	assert.Equal(t, 24, cfg.Enrich.CacheTTLHours)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	chtemp(t)

	yaml := `
tenant:
  id: acme
store:
  driver: postgres
  database_url: postgres://localhost/intel
log:
  level: debug
  format: console
enrich:
  concurrency: 4
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "acme", cfg.Tenant.ID)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 4, cfg.Enrich.Concurrency)
	// Defaults still apply for unset values
	assert.Equal(t, 1000, cfg.Enrich.MinIntervalMs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	chtemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("INTEL_STORE_DRIVER", "postgres")
	t.Setenv("INTEL_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chtemp(t)

	t.Setenv("INTEL_SERPER_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "test-key", cfg.Serper.Key)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	assert.Error(t, InitLogger(LogConfig{Level: "invalid", Format: "json"}))
}

func validConfig() *Config {
	return &Config{
		Tenant:   TenantConfig{ID: "default"},
		Store:    StoreConfig{Driver: "sqlite", DatabaseURL: "intel.db"},
		Serper:   SerperConfig{Key: "key"},
		Analysis: AnalysisConfig{DefaultOwnCapital: 1_000_000, MatchThreshold: 0.6, ExactThreshold: 0.9},
		Enrich:   EnrichConfig{MinIntervalMs: 1000, Concurrency: 2, CacheTTLHours: 24},
		Server:   ServerConfig{Port: 8080},
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	for _, mode := range []string{"analyze", "discover", "compare", "export", "serve"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidate_MissingSearchKey(t *testing.T) {
	cfg := validConfig()
	cfg.Serper.Key = ""

	err := cfg.Validate("analyze")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serper.key is required")

	// Compare runs offline and does not need the key.
	assert.NoError(t, cfg.Validate("compare"))
}

func TestValidate_BadDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Driver = "mysql"
	err := cfg.Validate("compare")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
}

func TestValidate_ServePort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidate_ThresholdBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Analysis.MatchThreshold = 1.5
	err := cfg.Validate("compare")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "match_threshold")
}

func TestValidate_UnknownMode(t *testing.T) {
	cfg := validConfig()
	err := cfg.Validate("bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
