package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// StoreMode selects which record shape the dashboard serves.
type StoreMode string

const (
	ModeFraud       StoreMode = "fraud"
	ModeAssessments StoreMode = "assessments"
)

// LLMProvider defines the supported generation backends.
type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
	// ProviderStatic is an offline generator used for demos and tests when
	// no API key is available.
	ProviderStatic LLMProvider = "static"
)

// Config holds the entire application configuration.
type Config struct {
	Logger LoggerConfig `mapstructure:"logger" yaml:"logger"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Store  StoreConfig  `mapstructure:"store" yaml:"store"`
	LLM    LLMConfig    `mapstructure:"llm" yaml:"llm"`
	Chat   ChatConfig   `mapstructure:"chat" yaml:"chat"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// ServerConfig tunes the dashboard HTTP server.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// StoreConfig configures the report store and its refresh loop.
type StoreConfig struct {
	Mode StoreMode `mapstructure:"mode" yaml:"mode"`
	// SeedPath is the JSON array file that bootstraps each session's
	// collection.
	SeedPath string `mapstructure:"seed_path" yaml:"seed_path"`
	// InitialSample down-samples the seed population on load; 0 keeps all.
	InitialSample int `mapstructure:"initial_sample" yaml:"initial_sample"`
	// InitialBatch is how many records to synthesize when the seed file is
	// missing or empty.
	InitialBatch int `mapstructure:"initial_batch" yaml:"initial_batch"`
	// ResetSize is the target size for the reset-backlog and logout actions.
	ResetSize int `mapstructure:"reset_size" yaml:"reset_size"`
	// Cap is the collection size at which the refresher stops permanently.
	Cap int `mapstructure:"cap" yaml:"cap"`
	// RefreshInterval is the pause between refresh cycles.
	RefreshInterval time.Duration `mapstructure:"refresh_interval" yaml:"refresh_interval"`
	// GenerateRetryCap bounds the duplicate-id retry loop.
	GenerateRetryCap int `mapstructure:"generate_retry_cap" yaml:"generate_retry_cap"`
	// GenerateTimeout bounds one generation call issued by the refresher.
	GenerateTimeout time.Duration `mapstructure:"generate_timeout" yaml:"generate_timeout"`
}

// LLMConfig defines the connection to the hosted generation endpoint.
type LLMConfig struct {
	Provider     LLMProvider       `mapstructure:"provider" yaml:"provider"`
	Model        string            `mapstructure:"model" yaml:"model"`
	APIKey       string            `mapstructure:"api_key" yaml:"-"`
	Endpoint     string            `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout   time.Duration     `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature  float32           `mapstructure:"temperature" yaml:"temperature"`
	TopP         float32           `mapstructure:"top_p" yaml:"top_p"`
	TopK         int               `mapstructure:"top_k" yaml:"top_k"`
	MaxTokens    int               `mapstructure:"max_tokens" yaml:"max_tokens"`
	SafetyFilter map[string]string `mapstructure:"safety_filters" yaml:"safety_filters"`
}

// ChatConfig tunes the dashboard assistant.
type ChatConfig struct {
	Temperature  float32 `mapstructure:"temperature" yaml:"temperature"`
	HistoryLimit int     `mapstructure:"history_limit" yaml:"history_limit"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "reportdeck")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Server --
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "0s") // streaming responses
	v.SetDefault("server.shutdown_timeout", "10s")

	// -- Store --
	v.SetDefault("store.mode", string(ModeFraud))
	v.SetDefault("store.seed_path", "sample_data.json")
	v.SetDefault("store.initial_sample", 10)
	v.SetDefault("store.initial_batch", 10)
	v.SetDefault("store.reset_size", 50)
	v.SetDefault("store.cap", 500)
	v.SetDefault("store.refresh_interval", "60s")
	v.SetDefault("store.generate_retry_cap", 5)
	v.SetDefault("store.generate_timeout", "2m")

	// -- LLM --
	v.SetDefault("llm.provider", string(ProviderGemini))
	v.SetDefault("llm.model", "gemini-2.0-flash")
	v.SetDefault("llm.endpoint", "https://generativelanguage.googleapis.com")
	v.SetDefault("llm.api_timeout", "90s")
	v.SetDefault("llm.temperature", 0.8)
	v.SetDefault("llm.max_tokens", 8192)

	// -- Chat --
	v.SetDefault("chat.temperature", 0.3)
	v.SetDefault("chat.history_limit", 40)
}

// NewDefaultConfig creates a configuration struct populated with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// The API key is sensitive and normally arrives via environment.
	v.BindEnv("llm.api_key", "REPORTDECK_LLM_API_KEY", "GOOGLE_API_KEY")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch c.Store.Mode {
	case ModeFraud, ModeAssessments:
	default:
		return fmt.Errorf("store.mode must be %q or %q, got %q", ModeFraud, ModeAssessments, c.Store.Mode)
	}
	if c.Store.Cap <= 0 {
		return fmt.Errorf("store.cap must be a positive integer")
	}
	if c.Store.ResetSize < 0 {
		return fmt.Errorf("store.reset_size must not be negative")
	}
	if c.Store.RefreshInterval <= 0 {
		return fmt.Errorf("store.refresh_interval must be a positive duration")
	}
	if c.Store.GenerateRetryCap <= 0 {
		return fmt.Errorf("store.generate_retry_cap must be a positive integer")
	}
	switch c.LLM.Provider {
	case ProviderGemini, ProviderStatic:
	default:
		return fmt.Errorf("unknown llm.provider %q. Supported: [%s %s]", c.LLM.Provider, ProviderGemini, ProviderStatic)
	}
	if c.LLM.Provider == ProviderGemini && c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required for the gemini provider")
	}
	return nil
}
