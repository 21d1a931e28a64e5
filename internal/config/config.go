package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Meta      MetaConfig      `yaml:"meta" mapstructure:"meta"`
	TikTok    TikTokConfig    `yaml:"tiktok" mapstructure:"tiktok"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Sampling  SamplingConfig  `yaml:"sampling" mapstructure:"sampling"`
	Analysis  AnalysisConfig  `yaml:"analysis" mapstructure:"analysis"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// MetaConfig holds Meta Ad Library API settings (serves Instagram, Threads
// and Facebook).
type MetaConfig struct {
	AccessToken string `yaml:"access_token" mapstructure:"access_token"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	RateQPS     int    `yaml:"rate_qps" mapstructure:"rate_qps"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// TikTokConfig holds TikTok Creative Center API settings.
type TikTokConfig struct {
	AccessToken string `yaml:"access_token" mapstructure:"access_token"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	RateQPS     int    `yaml:"rate_qps" mapstructure:"rate_qps"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnthropicConfig holds Anthropic API settings for vision extraction and
// mechanism text generation.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	VisionModel string `yaml:"vision_model" mapstructure:"vision_model"`
	TextModel   string `yaml:"text_model" mapstructure:"text_model"`
}

// SamplingConfig controls how many ads are collected and how they split
// across performance tiers. Tier-assignment thresholds are external-source
// specific, so they live here rather than in pipeline invariants.
type SamplingConfig struct {
	TargetSampleSize int     `yaml:"target_sample_size" mapstructure:"target_sample_size"`
	SuccessRatio     float64 `yaml:"success_ratio" mapstructure:"success_ratio"`
	AverageRatio     float64 `yaml:"average_ratio" mapstructure:"average_ratio"`
	FailureRatio     float64 `yaml:"failure_ratio" mapstructure:"failure_ratio"`

	// Delivery-duration thresholds for tier assignment, in days.
	SuccessMinDays int `yaml:"success_min_days" mapstructure:"success_min_days"`
	FailureMaxDays int `yaml:"failure_max_days" mapstructure:"failure_max_days"`

	// AdjacentIndustries maps an industry to the fallback industries the
	// collector may broaden into when the primary search falls short.
	AdjacentIndustries map[string][]string `yaml:"adjacent_industries" mapstructure:"adjacent_industries"`
}

// AnalysisConfig controls the vision and validation stages.
type AnalysisConfig struct {
	VisionConcurrency  int     `yaml:"vision_concurrency" mapstructure:"vision_concurrency"`
	VisionTimeoutSecs  int     `yaml:"vision_timeout_secs" mapstructure:"vision_timeout_secs"`
	MinTierSample      int     `yaml:"min_tier_sample" mapstructure:"min_tier_sample"`
	SignificanceAlpha  float64 `yaml:"significance_alpha" mapstructure:"significance_alpha"`
	MaxReferenceAds    int     `yaml:"max_reference_ads" mapstructure:"max_reference_ads"`
	AvoidGapPP         float64 `yaml:"avoid_gap_pp" mapstructure:"avoid_gap_pp"`
	MechanismMaxTokens int     `yaml:"mechanism_max_tokens" mapstructure:"mechanism_max_tokens"`
}

// CacheConfig configures the redis-backed result cache.
type CacheConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
	TTLHours int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// BatchConfig configures batch analysis runs.
type BatchConfig struct {
	MaxConcurrentRuns int `yaml:"max_concurrent_runs" mapstructure:"max_concurrent_runs"`
}

// ServerConfig configures the analysis HTTP server.
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
	v.SetEnvPrefix("CREATIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Secrets default to empty so AutomaticEnv can surface them
	// through Unmarshal.
	v.SetDefault("meta.access_token", "")
	v.SetDefault("tiktok.access_token", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("cache.password", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("meta.base_url", "https://graph.facebook.com/v21.0")
	v.SetDefault("meta.rate_qps", 5)
	v.SetDefault("meta.timeout_secs", 30)
	v.SetDefault("tiktok.base_url", "https://business-api.tiktok.com/creative_radar_api/v1.0")
	v.SetDefault("tiktok.rate_qps", 5)
	v.SetDefault("tiktok.timeout_secs", 30)
	v.SetDefault("anthropic.vision_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.text_model", "claude-haiku-4-5-20251001")
	v.SetDefault("sampling.target_sample_size", 60)
	v.SetDefault("sampling.success_ratio", 0.65)
	v.SetDefault("sampling.average_ratio", 0.25)
	v.SetDefault("sampling.failure_ratio", 0.10)
	v.SetDefault("sampling.success_min_days", 30)
	v.SetDefault("sampling.failure_max_days", 7)
	v.SetDefault("sampling.adjacent_industries", defaultAdjacentIndustries())
	v.SetDefault("analysis.vision_concurrency", 5)
	v.SetDefault("analysis.vision_timeout_secs", 30)
	v.SetDefault("analysis.min_tier_sample", 5)
	v.SetDefault("analysis.significance_alpha", 0.05)
	v.SetDefault("analysis.max_reference_ads", 3)
	v.SetDefault("analysis.avoid_gap_pp", 20.0)
	v.SetDefault("analysis.mechanism_max_tokens", 512)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("batch.max_concurrent_runs", 3)

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

// defaultAdjacentIndustries is the built-in broadening map. Industries not
// listed here simply have no fallback.
func defaultAdjacentIndustries() map[string][]string {
	return map[string][]string{
		"cosmetics":     {"beauty", "skincare", "personal_care"},
		"skincare":      {"cosmetics", "beauty"},
		"fitness":       {"wellness", "sports", "nutrition"},
		"fashion":       {"apparel", "accessories"},
		"food_delivery": {"restaurants", "grocery"},
		"fintech":       {"banking", "insurance"},
		"gaming":        {"entertainment", "apps"},
		"education":     {"edtech", "publishing"},
	}
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
