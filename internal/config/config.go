// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/enrich-cli/internal/match"
	"github.com/sells-group/enrich-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Apollo ApolloConfig `yaml:"apollo" mapstructure:"apollo"`
	Batch  BatchConfig  `yaml:"batch" mapstructure:"batch"`
	Match  MatchConfig  `yaml:"match" mapstructure:"match"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// ApolloConfig holds external source credentials and client settings. An
// empty key switches the application to the deterministic stub source.
type ApolloConfig struct {
	Key                string `yaml:"key" mapstructure:"key"`
	BaseURL            string `yaml:"base_url" mapstructure:"base_url"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute" mapstructure:"rate_limit_per_minute"`
}

// Stub reports whether lookups should run against the stub source.
func (c ApolloConfig) Stub() bool { return c.Key == "" }

// BatchConfig configures batch processing.
type BatchConfig struct {
	GroupSize   int           `yaml:"group_size" mapstructure:"group_size"`
	Pacing      time.Duration `yaml:"pacing" mapstructure:"pacing"`
	StubPacing  time.Duration `yaml:"stub_pacing" mapstructure:"stub_pacing"`
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// EffectivePacing returns the inter-group delay for the active source. The
// stub needs no real pacing but keeps a small delay so progress is observable.
func (c BatchConfig) EffectivePacing(stub bool) time.Duration {
	if stub {
		return c.StubPacing
	}
	return c.Pacing
}

// MatchConfig configures field matching and tier thresholds.
type MatchConfig struct {
	Thresholds match.Thresholds `yaml:"thresholds" mapstructure:"thresholds"`
	VocabPath  string           `yaml:"vocab_path" mapstructure:"vocab_path"`
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	Driver      string            `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string            `yaml:"database_url" mapstructure:"database_url"`
	Pool        *store.PoolConfig `yaml:"pool" mapstructure:"pool"`
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

// Validate checks the configuration needed for the given mode ("analyze" or
// "serve"). Errors name every offending key so misconfiguration surfaces in
// one pass.
func (c *Config) Validate(mode string) error {
	var problems []string

	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	check(c.Batch.GroupSize >= 1 && c.Batch.GroupSize <= 50, "batch.group_size must be between 1 and 50")
	check(c.Batch.Pacing >= 0, "batch.pacing must be >= 0")
	check(c.Match.Thresholds.Partial >= 1, "match.thresholds.partial must be >= 1")
	check(c.Match.Thresholds.Exact >= c.Match.Thresholds.Partial, "match.thresholds.exact must be >= match.thresholds.partial")
	check(c.Match.Thresholds.Exact <= 4, "match.thresholds.exact must be <= 4")

	switch c.Store.Driver {
	case "memory":
	case "sqlite", "postgres":
		check(c.Store.DatabaseURL != "", "store.database_url is required for driver "+c.Store.Driver)
	default:
		problems = append(problems, "store.driver must be one of memory, sqlite, postgres")
	}

	switch mode {
	case "analyze":
	case "serve":
		check(c.Server.Port > 0, "server.port must be > 0")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("apollo.base_url", "https://api.apollo.io")
	v.SetDefault("apollo.rate_limit_per_minute", 100)
	v.SetDefault("batch.group_size", 5)
	v.SetDefault("batch.pacing", "2s")
	v.SetDefault("batch.stub_pacing", "500ms")
	v.SetDefault("batch.max_attempts", 2)
	v.SetDefault("match.thresholds.exact", 4)
	v.SetDefault("match.thresholds.partial", 2)
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.database_url", "enrich.db")
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
