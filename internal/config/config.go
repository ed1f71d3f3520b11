package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/young1lin/exa-bridge/internal/apperr"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Provider ProviderConfig `mapstructure:"provider"`
	Poll     PollConfig     `mapstructure:"poll"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// ProviderConfig configures the Exa API client
type ProviderConfig struct {
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url"`
	WebsetsPath string `mapstructure:"websets_path"`
	Timeout     int    `mapstructure:"timeout"`   // seconds, per request
	PageSize    int    `mapstructure:"page_size"` // items per list call
}

// PollConfig configures webset polling. All values are seconds.
type PollConfig struct {
	Interval     int `mapstructure:"interval"`
	MaxWait      int `mapstructure:"max_wait"`
	MaxWaitLimit int `mapstructure:"max_wait_limit"` // upper bound for HTTP callers
}

func (p PollConfig) IntervalDuration() time.Duration {
	return time.Duration(p.Interval) * time.Second
}

func (p PollConfig) MaxWaitDuration() time.Duration {
	return time.Duration(p.MaxWait) * time.Second
}

func (p PollConfig) MaxWaitLimitDuration() time.Duration {
	return time.Duration(p.MaxWaitLimit) * time.Second
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"` // empty disables the rotating file sink
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type StorageConfig struct {
	Path string `mapstructure:"path"` // run journal, empty disables it
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads settings from cfgFile (or config.yaml in the usual places),
// the environment and .env files. It does not validate.
func Load(cfgFile string) (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()
	_ = godotenv.Load(".env.local")

	v := viper.New()
	setDefaults(v)

	// Replace . with _ for nested config keys
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("EXA")
	v.AutomaticEnv()
	// lowercase name is what older .env files use
	if err := v.BindEnv("provider.api_key", "EXA_API_KEY", "exa_api_key"); err != nil {
		return nil, err
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, &apperr.ConfigError{Key: "settings", Message: err.Error()}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &apperr.ConfigError{Key: "settings", Message: fmt.Sprintf("unmarshal: %v", err)}
	}

	return &cfg, nil
}

// Validate checks settings needed to talk to the provider
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Provider.APIKey) == "" {
		return &apperr.ConfigError{Key: "provider.api_key", Message: "EXA_API_KEY is not set"}
	}
	if u, err := url.Parse(c.Provider.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return &apperr.ConfigError{Key: "provider.base_url", Message: fmt.Sprintf("invalid url %q", c.Provider.BaseURL)}
	}
	if c.Provider.PageSize < 1 || c.Provider.PageSize > 100 {
		return &apperr.ConfigError{Key: "provider.page_size", Message: "must be between 1 and 100"}
	}
	if c.Poll.Interval <= 0 {
		return &apperr.ConfigError{Key: "poll.interval", Message: "must be positive"}
	}
	if c.Poll.MaxWait <= 0 {
		return &apperr.ConfigError{Key: "poll.max_wait", Message: "must be positive"}
	}
	if c.Poll.MaxWaitLimit < c.Poll.MaxWait {
		return &apperr.ConfigError{Key: "poll.max_wait_limit", Message: "must not be below poll.max_wait"}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 660)

	// Provider defaults
	v.SetDefault("provider.base_url", "https://api.exa.ai")
	v.SetDefault("provider.websets_path", "/websets/v0")
	v.SetDefault("provider.timeout", 30)
	v.SetDefault("provider.page_size", 100)

	// Poll defaults
	v.SetDefault("poll.interval", 10)
	v.SetDefault("poll.max_wait", 300)
	v.SetDefault("poll.max_wait_limit", 600)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_age_days", 7)

	v.SetDefault("storage.path", "")
	v.SetDefault("metrics.enabled", true)
}
