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
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	BrightData BrightDataConfig `yaml:"brightdata" mapstructure:"brightdata"`
	Together   TogetherConfig   `yaml:"together" mapstructure:"together"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Mailer     MailerConfig     `yaml:"mailer" mapstructure:"mailer"`
	Quality    QualityConfig    `yaml:"quality" mapstructure:"quality"`
	Generator  GeneratorConfig  `yaml:"generator" mapstructure:"generator"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit" mapstructure:"rate_limit"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// BrightDataConfig holds Bright Data scraping API settings. An empty Key
// switches the scraper adapter to synthetic placeholder data.
type BrightDataConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Zone    string `yaml:"zone" mapstructure:"zone"`
}

// TogetherConfig holds the primary LLM provider settings. FallbackModels
// are tried in order after PrimaryModel.
type TogetherConfig struct {
	Key            string   `yaml:"key" mapstructure:"key"`
	BaseURL        string   `yaml:"base_url" mapstructure:"base_url"`
	PrimaryModel   string   `yaml:"primary_model" mapstructure:"primary_model"`
	FallbackModels []string `yaml:"fallback_models" mapstructure:"fallback_models"`
}

// AnthropicConfig holds the optional last-chance LLM provider. Empty Key
// disables the Anthropic attempt; the deterministic template still applies.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// MailerConfig selects and configures the delivery driver.
type MailerConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // "resend" or "smtp"
	From   string `yaml:"from" mapstructure:"from"`

	ResendKey     string `yaml:"resend_key" mapstructure:"resend_key"`
	ResendBaseURL string `yaml:"resend_base_url" mapstructure:"resend_base_url"`

	SMTPHost     string `yaml:"smtp_host" mapstructure:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port" mapstructure:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user" mapstructure:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password" mapstructure:"smtp_password"`

	WebhookSecret string `yaml:"webhook_secret" mapstructure:"webhook_secret"`
}

// QualityConfig holds the lead quality gate thresholds. These are tuning
// values, kept configurable so they can be adjusted without a rebuild.
type QualityConfig struct {
	LinkedInBioMin   int `yaml:"linkedin_bio_min" mapstructure:"linkedin_bio_min"`
	LinkedInTitleMin int `yaml:"linkedin_title_min" mapstructure:"linkedin_title_min"`
	SocialBioMin     int `yaml:"social_bio_min" mapstructure:"social_bio_min"`
}

// GeneratorConfig configures prompt building.
type GeneratorConfig struct {
	PresetsPath string `yaml:"presets_path" mapstructure:"presets_path"`
	SenderName  string `yaml:"sender_name" mapstructure:"sender_name"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// RateLimitConfig configures the per-key request limiter on mutating routes.
type RateLimitConfig struct {
	Interval    time.Duration `yaml:"interval" mapstructure:"interval"`
	MaxRequests int           `yaml:"max_requests" mapstructure:"max_requests"`
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
	v.SetEnvPrefix("OUTREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "outreach.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("brightdata.base_url", "https://api.brightdata.com")
	v.SetDefault("brightdata.zone", "scraper")
	v.SetDefault("together.base_url", "https://api.together.xyz/v1")
	v.SetDefault("together.primary_model", "deepseek-ai/DeepSeek-R1-Distill-Llama-70B-free")
	v.SetDefault("together.fallback_models", []string{
		"meta-llama/Llama-3-8b-chat",
		"mistralai/Mixtral-8x7B-Instruct-v0.1",
		"google/gemma-7b-it",
	})
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("mailer.driver", "resend")
	v.SetDefault("mailer.resend_base_url", "https://api.resend.com")
	v.SetDefault("mailer.smtp_port", 587)
	v.SetDefault("quality.linkedin_bio_min", 20)
	v.SetDefault("quality.linkedin_title_min", 3)
	v.SetDefault("quality.social_bio_min", 15)
	v.SetDefault("generator.sender_name", "Ahmed")
	v.SetDefault("rate_limit.interval", time.Minute)
	v.SetDefault("rate_limit.max_requests", 10)

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
