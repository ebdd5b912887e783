// Package config loads application configuration from file and environment
// and owns global logger setup.
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
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	Clean   CleanConfig   `yaml:"clean" mapstructure:"clean"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the lead/session store backend.
type StoreConfig struct {
	// Driver selects the backend: postgres, sqlite, or rest.
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	// RestBaseURL and RestKey apply only to the rest driver.
	RestBaseURL string `yaml:"rest_base_url" mapstructure:"rest_base_url"`
	RestKey     string `yaml:"rest_key" mapstructure:"rest_key"`
}

// ScoringConfig configures the external classification webhook.
type ScoringConfig struct {
	WebhookURL  string `yaml:"webhook_url" mapstructure:"webhook_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// CleanConfig configures remediation behavior.
type CleanConfig struct {
	// MutationsPerSec throttles store writes during a cleaning run.
	// Zero disables throttling.
	MutationsPerSec float64 `yaml:"mutations_per_sec" mapstructure:"mutations_per_sec"`
}

// ServerConfig configures the dashboard-facing API server.
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
	v.SetEnvPrefix("LISTLAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "listlab.db")
	v.SetDefault("scoring.timeout_secs", 120)
	v.SetDefault("clean.mutations_per_sec", 0)
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

// Validate checks the configuration needed for the given run mode and
// collects every violation into one error.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "store":
	case "verify":
		if c.Scoring.WebhookURL == "" {
			problems = append(problems, "scoring.webhook_url is required")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
	case "sqlite":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the sqlite driver")
		}
	case "rest":
		if c.Store.RestBaseURL == "" {
			problems = append(problems, "store.rest_base_url is required for the rest driver")
		}
	default:
		problems = append(problems, "store.driver must be postgres, sqlite, or rest")
	}

	if c.Scoring.TimeoutSecs < 0 {
		problems = append(problems, "scoring.timeout_secs must be >= 0")
	}
	if c.Clean.MutationsPerSec < 0 {
		problems = append(problems, "clean.mutations_per_sec must be >= 0")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
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
