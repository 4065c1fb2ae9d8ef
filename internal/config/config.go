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
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Calendar CalendarConfig `yaml:"calendar" mapstructure:"calendar"`
	Registry RegistryConfig `yaml:"registry" mapstructure:"registry"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// FetchConfig configures the upstream HTTP client.
type FetchConfig struct {
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Retries         int     `yaml:"retries" mapstructure:"retries"`
	BackoffBaseSecs float64 `yaml:"backoff_base_secs" mapstructure:"backoff_base_secs"`
	RatePerHost     float64 `yaml:"rate_per_host" mapstructure:"rate_per_host"`
	UserAgent       string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// PipelineConfig configures snapshot aggregation behavior.
type PipelineConfig struct {
	GlobalTimeoutSecs   int     `yaml:"global_timeout_secs" mapstructure:"global_timeout_secs"`
	MaxConcurrentGroups int     `yaml:"max_concurrent_groups" mapstructure:"max_concurrent_groups"`
	HeaderScanRows      int     `yaml:"header_scan_rows" mapstructure:"header_scan_rows"`
	ConsistencyEpsilon  float64 `yaml:"consistency_epsilon" mapstructure:"consistency_epsilon"`
}

// CalendarConfig configures trading-date resolution.
type CalendarConfig struct {
	CutoffHour int    `yaml:"cutoff_hour" mapstructure:"cutoff_hour"`
	Timezone   string `yaml:"timezone" mapstructure:"timezone"`
}

// RegistryConfig points at an optional metric-group override file.
type RegistryConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the read-only HTTP API.
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
	v.SetEnvPrefix("CHIPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "chips.db")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.retries", 2)
	v.SetDefault("fetch.backoff_base_secs", 1.0)
	v.SetDefault("fetch.rate_per_host", 2.0)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (compatible; chips-cli/1.0)")
	v.SetDefault("pipeline.global_timeout_secs", 120)
	v.SetDefault("pipeline.max_concurrent_groups", 4)
	v.SetDefault("pipeline.header_scan_rows", 6)
	v.SetDefault("pipeline.consistency_epsilon", 1.0)
	v.SetDefault("calendar.cutoff_hour", 15)
	v.SetDefault("calendar.timezone", "Asia/Taipei")
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
