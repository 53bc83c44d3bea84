package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Redis      RedisConfig      `yaml:"redis" mapstructure:"redis"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Slack      SlackConfig      `yaml:"slack" mapstructure:"slack"`
	Clearbit   ClearbitConfig   `yaml:"clearbit" mapstructure:"clearbit"`
	Hunter     HunterConfig     `yaml:"hunter" mapstructure:"hunter"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit" mapstructure:"rate_limit"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Scoring    ScoringConfig    `yaml:"scoring" mapstructure:"scoring"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Router     RouterConfig     `yaml:"router" mapstructure:"router"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// RedisConfig configures the shared Redis backend for rate limiting and caching.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// AnthropicConfig holds Anthropic API settings for the scoring adjustment call.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// SalesforceConfig holds Salesforce JWT auth settings.
type SalesforceConfig struct {
	ClientID string  `yaml:"client_id" mapstructure:"client_id"`
	Username string  `yaml:"username" mapstructure:"username"`
	KeyPath  string  `yaml:"key_path" mapstructure:"key_path"`
	LoginURL string  `yaml:"login_url" mapstructure:"login_url"`
	RPS      float64 `yaml:"rps" mapstructure:"rps"`
}

// SlackConfig holds the incoming-webhook URL for assignment notifications.
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// ClearbitConfig holds the Clearbit enrichment provider settings.
type ClearbitConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// HunterConfig holds the Hunter email-verification provider settings.
type HunterConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// TierLimits holds the per-window request quotas for one pricing tier.
type TierLimits struct {
	PerSecond int `yaml:"per_second" mapstructure:"per_second"`
	PerMinute int `yaml:"per_minute" mapstructure:"per_minute"`
	PerHour   int `yaml:"per_hour" mapstructure:"per_hour"`
	PerDay    int `yaml:"per_day" mapstructure:"per_day"`
	Burst     int `yaml:"burst" mapstructure:"burst"`
}

// RateLimitConfig configures admission control.
type RateLimitConfig struct {
	Enabled     bool                  `yaml:"enabled" mapstructure:"enabled"`
	TimeoutSecs int                   `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Tiers       map[string]TierLimits `yaml:"tiers" mapstructure:"tiers"`
}

// Timeout returns the bounded per-check timeout for store calls.
func (c RateLimitConfig) Timeout() time.Duration {
	if c.TimeoutSecs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.TimeoutSecs) * time.Second
}

// CacheConfig configures the Redis-backed cache client.
type CacheConfig struct {
	Prefix         string `yaml:"prefix" mapstructure:"prefix"`
	DefaultTTLSecs int    `yaml:"default_ttl_secs" mapstructure:"default_ttl_secs"`
	MaxFailures    int    `yaml:"max_failures" mapstructure:"max_failures"`
	RecoverySecs   int    `yaml:"recovery_secs" mapstructure:"recovery_secs"`
	OpTimeoutSecs  int    `yaml:"op_timeout_secs" mapstructure:"op_timeout_secs"`
}

// OpTimeout returns the bounded per-operation timeout for store calls.
func (c CacheConfig) OpTimeout() time.Duration {
	if c.OpTimeoutSecs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.OpTimeoutSecs) * time.Second
}

// ScoringConfig configures the rule-based scoring weights.
type ScoringConfig struct {
	CompanyFitWeight      float64 `yaml:"company_fit_weight" mapstructure:"company_fit_weight"`
	IntentSignalWeight    float64 `yaml:"intent_signal_weight" mapstructure:"intent_signal_weight"`
	BudgetIndicatorWeight float64 `yaml:"budget_indicator_weight" mapstructure:"budget_indicator_weight"`
	UrgencyWeight         float64 `yaml:"urgency_weight" mapstructure:"urgency_weight"`
}

// BatchConfig configures batch qualification.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
	ChunkSize   int `yaml:"chunk_size" mapstructure:"chunk_size"`
}

// RouterConfig configures lead routing.
type RouterConfig struct {
	// RepsPath points to a JSON file with the sales rep roster. Empty means
	// the built-in demo roster.
	RepsPath string `yaml:"reps_path" mapstructure:"reps_path"`
}

// ServerConfig configures the HTTP server.
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
	v.SetEnvPrefix("LEADQUAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 300)
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.rps", 5)
	v.SetDefault("clearbit.base_url", "https://person-stream.clearbit.com")
	v.SetDefault("hunter.base_url", "https://api.hunter.io")
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.timeout_secs", 2)
	v.SetDefault("rate_limit.tiers", map[string]any{
		"free":       map[string]any{"per_second": 2, "per_minute": 30, "per_hour": 50, "per_day": 200, "burst": 5},
		"pro":        map[string]any{"per_second": 10, "per_minute": 300, "per_hour": 2000, "per_day": 25000, "burst": 20},
		"enterprise": map[string]any{"per_second": 50, "per_minute": 1500, "per_hour": 10000, "per_day": 100000, "burst": 100},
	})
	v.SetDefault("cache.prefix", "lq")
	v.SetDefault("cache.default_ttl_secs", 3600)
	v.SetDefault("cache.max_failures", 5)
	v.SetDefault("cache.recovery_secs", 30)
	v.SetDefault("cache.op_timeout_secs", 5)
	v.SetDefault("scoring.company_fit_weight", 0.35)
	v.SetDefault("scoring.intent_signal_weight", 0.30)
	v.SetDefault("scoring.budget_indicator_weight", 0.20)
	v.SetDefault("scoring.urgency_weight", 0.15)
	v.SetDefault("batch.concurrency", 5)
	v.SetDefault("batch.chunk_size", 10)

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
