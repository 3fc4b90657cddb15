package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"block-ts-audit/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Collector CollectorConfig `mapstructure:"collector"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// ChainConfig identifies one monitored chain and its RPC endpoint.
type ChainConfig struct {
	Name   string `mapstructure:"name"`
	RPCURL string `mapstructure:"rpc_url"`
}

// CollectorConfig governs the live block watcher.
type CollectorConfig struct {
	Chains         []ChainConfig `mapstructure:"chains"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	ReportInterval time.Duration `mapstructure:"report_interval"`
	// Duration limits a collection run; zero runs until interrupted.
	Duration       time.Duration `mapstructure:"duration"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	OutputDir      string        `mapstructure:"output_dir"`
}

// AnalysisConfig tunes the deviation engine.
type AnalysisConfig struct {
	BatchWindowMS float64  `mapstructure:"batch_window_ms"`
	BinWidthMS    float64  `mapstructure:"bin_width_ms"`
	Chains        []string `mapstructure:"chains"`
}

// DatabaseConfig encapsulates optional PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
}

// MetricsConfig controls the Prometheus endpoint of the collector.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// ExportConfig sets chart/CSV export behaviour.
type ExportConfig struct {
	OutputDir     string `mapstructure:"output_dir"`
	MaxDataPoints int    `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TSAUDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "tsaudit")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("collector.poll_interval", "500ms")
	v.SetDefault("collector.report_interval", "1m")
	v.SetDefault("collector.duration", "1h")
	v.SetDefault("collector.request_timeout", "10s")
	v.SetDefault("collector.output_dir", "./logs")

	v.SetDefault("analysis.batch_window_ms", 15000.0)
	v.SetDefault("analysis.bin_width_ms", 100.0)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.advisory_lock_key", int64(0x74736175))

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen", ":9109")

	v.SetDefault("export.output_dir", "./analysis")
	v.SetDefault("export.max_data_points", 100000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Analysis.BatchWindowMS <= 0 {
		return fmt.Errorf("analysis.batch_window_ms must be greater than zero")
	}
	if c.Analysis.BinWidthMS <= 0 {
		return fmt.Errorf("analysis.bin_width_ms must be greater than zero")
	}
	if c.Collector.PollInterval <= 0 {
		return fmt.Errorf("collector.poll_interval must be greater than zero")
	}
	if c.Collector.ReportInterval <= 0 {
		return fmt.Errorf("collector.report_interval must be greater than zero")
	}
	if c.Collector.OutputDir == "" {
		return fmt.Errorf("collector.output_dir must be set")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	for i, chain := range c.Collector.Chains {
		if chain.Name == "" {
			return fmt.Errorf("collector.chains[%d].name must be set", i)
		}
		if chain.RPCURL == "" {
			return fmt.Errorf("collector.chains[%d].rpc_url must be set", i)
		}
	}
	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		return fmt.Errorf("metrics.listen must be set when metrics are enabled")
	}
	return nil
}
