// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/feedpilot/feedpilot-cli/api/schemas"
)

// Supported LLM providers.
const (
	ProviderGemini = "gemini"
	ProviderHTTP   = "http"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Planner PlannerConfig `mapstructure:"planner" yaml:"planner"`
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Policy  PolicyConfig  `mapstructure:"policy" yaml:"policy"`
	Feed    FeedConfig    `mapstructure:"feed" yaml:"feed"`
	Runner  RunnerConfig  `mapstructure:"runner" yaml:"runner"`
}

// LoggerConfig controls the global zap logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"` // "console" or "json"
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// PlannerConfig selects the planner and bounds the external call.
type PlannerConfig struct {
	Mode string `mapstructure:"mode" yaml:"mode"` // "rule" or "external"
	// RequestTimeout caps one external planner round trip. A slow
	// collaborator must never block the loop past this bound.
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// LLMConfig configures the external text-completion backend.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider" yaml:"provider"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	Model       string        `mapstructure:"model" yaml:"model"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	// MaxRetryElapsed bounds the total retry budget inside one request.
	MaxRetryElapsed time.Duration `mapstructure:"max_retry_elapsed" yaml:"max_retry_elapsed"`
}

// PolicyConfig supplies the default run policy; CLI flags override it.
type PolicyConfig struct {
	Goal           string `mapstructure:"goal" yaml:"goal"`
	Tone           string `mapstructure:"tone" yaml:"tone"`
	RiskTolerance  string `mapstructure:"risk_tolerance" yaml:"risk_tolerance"`
	MaxAutoActions int    `mapstructure:"max_auto_actions" yaml:"max_auto_actions"`
}

// FeedConfig locates the feed snapshot. An empty file means the built-in
// sample feed.
type FeedConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// RunnerConfig tunes the driving loop.
type RunnerConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	// RatePerSecond and RateBurst feed the token bucket guarding action
	// frequency across ticks.
	RatePerSecond float64 `mapstructure:"rate_per_second" yaml:"rate_per_second"`
	RateBurst     int     `mapstructure:"rate_burst" yaml:"rate_burst"`
	SnapshotDir   string  `mapstructure:"snapshot_dir" yaml:"snapshot_dir"`
}

// setDefaults registers every default so a missing config file still yields a
// runnable configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "feedpilot")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 7)

	v.SetDefault("planner.mode", "rule")
	v.SetDefault("planner.request_timeout", 9*time.Second)

	v.SetDefault("llm.provider", ProviderGemini)
	v.SetDefault("llm.model", "gemini-2.0-flash")
	v.SetDefault("llm.api_timeout", 8*time.Second)
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_retry_elapsed", 8*time.Second)

	v.SetDefault("policy.goal", "engage")
	v.SetDefault("policy.tone", "neutral")
	v.SetDefault("policy.risk_tolerance", "medium")
	v.SetDefault("policy.max_auto_actions", 6)

	v.SetDefault("runner.interval", 2*time.Second)
	v.SetDefault("runner.rate_per_second", 1.0)
	v.SetDefault("runner.rate_burst", 1)
}

// Load reads the config file (optional) and FEEDPILOT_* environment
// overrides into a validated Config.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("FEEDPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the core would otherwise have to guess about.
func (c *Config) Validate() error {
	switch schemas.PlannerMode(c.Planner.Mode) {
	case schemas.PlannerModeRule, schemas.PlannerModeExternal:
	default:
		return fmt.Errorf("invalid planner.mode %q (want rule or external)", c.Planner.Mode)
	}
	if c.Planner.RequestTimeout <= 0 {
		return fmt.Errorf("planner.request_timeout must be positive")
	}
	if c.Policy.MaxAutoActions < 1 {
		return fmt.Errorf("policy.max_auto_actions must be at least 1")
	}
	if c.Runner.Interval <= 0 {
		return fmt.Errorf("runner.interval must be positive")
	}
	return nil
}

// RunPolicy assembles the schemas.Policy a new run starts with.
func (c *Config) RunPolicy() schemas.Policy {
	return schemas.Policy{
		Goal:           schemas.Goal(c.Policy.Goal),
		Tone:           schemas.Tone(c.Policy.Tone),
		RiskTolerance:  schemas.RiskTolerance(c.Policy.RiskTolerance),
		PlannerMode:    schemas.PlannerMode(c.Planner.Mode),
		MaxAutoActions: c.Policy.MaxAutoActions,
	}
}
