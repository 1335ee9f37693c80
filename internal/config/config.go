// Package config loads application configuration from config.yaml and the
// environment (INTEL_ prefix) and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stratevo/intel-cli/internal/rank"
	"github.com/stratevo/intel-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Tenant   TenantConfig   `yaml:"tenant" mapstructure:"tenant"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Serper   SerperConfig   `yaml:"serper" mapstructure:"serper"`
	Registry RegistryConfig `yaml:"registry" mapstructure:"registry"`
	RPC      RPCConfig      `yaml:"rpc" mapstructure:"rpc"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Rank     RankConfig     `yaml:"rank" mapstructure:"rank"`
	Enrich   EnrichConfig   `yaml:"enrich" mapstructure:"enrich"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// TenantConfig identifies whose data the CLI operates on.
type TenantConfig struct {
	ID string `yaml:"id" mapstructure:"id"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string            `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string            `yaml:"database_url" mapstructure:"database_url"`
	Pool        *store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// SerperConfig holds search API credentials.
type SerperConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// RegistryConfig holds the company-registry API settings.
type RegistryConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// RPCConfig holds the CRM backend RPC settings.
type RPCConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Token   string `yaml:"token" mapstructure:"token"`
}

// AnalysisConfig tunes the scoring thresholds.
type AnalysisConfig struct {
	// DefaultOwnCapital stands in when the tenant's registered capital is
	// unknown.
	DefaultOwnCapital float64 `yaml:"default_own_capital" mapstructure:"default_own_capital"`
	MatchThreshold    float64 `yaml:"match_threshold" mapstructure:"match_threshold"`
	ExactThreshold    float64 `yaml:"exact_threshold" mapstructure:"exact_threshold"`
}

// RankConfig tunes the relevance ranker.
type RankConfig struct {
	Weights      rank.Weights `yaml:"weights" mapstructure:"weights"`
	DenylistPath string       `yaml:"denylist_path" mapstructure:"denylist_path"`
}

// EnrichConfig tunes the enrichment pass.
type EnrichConfig struct {
	MinIntervalMs int `yaml:"min_interval_ms" mapstructure:"min_interval_ms"`
	Concurrency   int `yaml:"concurrency" mapstructure:"concurrency"`
	CacheTTLHours int `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("INTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("tenant.id", "default")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "intel.db")
	v.SetDefault("serper.base_url", "https://google.serper.dev")
	v.SetDefault("registry.base_url", "https://brasilapi.com.br/api/cnpj/v1")
	v.SetDefault("analysis.default_own_capital", 1_000_000)
	v.SetDefault("analysis.match_threshold", 0.6)
	v.SetDefault("analysis.exact_threshold", 0.9)
	v.SetDefault("rank.weights.semantic", 0.50)
	v.SetDefault("rank.weights.position", 0.25)
	v.SetDefault("rank.weights.title", 0.15)
	v.SetDefault("rank.weights.snippet", 0.10)
	v.SetDefault("enrich.min_interval_ms", 1000)
	v.SetDefault("enrich.concurrency", 2)
	v.SetDefault("enrich.cache_ttl_hours", 24)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
