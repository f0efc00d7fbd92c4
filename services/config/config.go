// Package config loads the application configuration from YAML, with
// defaults for every knob so a missing file still yields a runnable
// setup.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"orb-backtest/services/engine"
)

type PathsConfig struct {
	Input  string `mapstructure:"input"`
	Output string `mapstructure:"output"`
	Report string `mapstructure:"report"`
}

type StrategyConfig struct {
	IntervalMinutes int     `mapstructure:"interval_minutes"`
	SignalTime      string  `mapstructure:"signal_time"`
	SessionOpen     string  `mapstructure:"session_open"`
	SessionClose    string  `mapstructure:"session_close"`
	CostRate        float64 `mapstructure:"cost_rate"`
}

type ExportConfig struct {
	Format string `mapstructure:"format"`
	Bars   string `mapstructure:"bars"`
}

type ClickHouseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Table    string `mapstructure:"table"`
}

type ServerConfig struct {
	Addr    string `mapstructure:"addr"`
	Workers int    `mapstructure:"workers"`
}

type Config struct {
	Environment string           `mapstructure:"environment"`
	Paths       PathsConfig      `mapstructure:"paths"`
	Strategy    StrategyConfig   `mapstructure:"strategy"`
	Export      ExportConfig     `mapstructure:"export"`
	ClickHouse  ClickHouseConfig `mapstructure:"clickhouse"`
	Server      ServerConfig     `mapstructure:"server"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "dev")
	v.SetDefault("paths.input", "data/ticks.csv")
	v.SetDefault("paths.output", "output/trades.csv")
	v.SetDefault("paths.report", "output/run_report.json")
	v.SetDefault("strategy.interval_minutes", 5)
	v.SetDefault("strategy.signal_time", "09:25")
	v.SetDefault("strategy.session_open", "09:30")
	v.SetDefault("strategy.session_close", "15:15")
	v.SetDefault("strategy.cost_rate", 0.0012)
	v.SetDefault("export.format", "csv")
	v.SetDefault("export.bars", "")
	v.SetDefault("clickhouse.enabled", false)
	v.SetDefault("clickhouse.addr", "localhost:9000")
	v.SetDefault("clickhouse.database", "backtest")
	v.SetDefault("clickhouse.username", "default")
	v.SetDefault("clickhouse.password", "")
	v.SetDefault("clickhouse.table", "trades")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.workers", 4)
}

// Load reads the configuration at path. An empty path falls back to a
// config.yaml looked up in the working directory and ./configs; if no
// file exists anywhere the defaults are returned as-is. Environment
// variables override file values: ORB_SERVER_ADDR maps to server.addr
// and so on for every key.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("ORB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// No file anywhere: run on defaults.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Params converts the strategy section into engine parameters.
func (c *Config) Params() (engine.Params, error) {
	var p engine.Params

	if c.Strategy.IntervalMinutes < 1 {
		return p, fmt.Errorf("strategy.interval_minutes: must be at least 1, got %d", c.Strategy.IntervalMinutes)
	}
	signalAt, err := engine.ParseMinuteOfDay(c.Strategy.SignalTime)
	if err != nil {
		return p, fmt.Errorf("strategy.signal_time: %w", err)
	}
	session, err := engine.NewSession(c.Strategy.SessionOpen, c.Strategy.SessionClose)
	if err != nil {
		return p, fmt.Errorf("strategy session: %w", err)
	}

	p = engine.Params{
		Interval:   time.Duration(c.Strategy.IntervalMinutes) * time.Minute,
		SignalTime: signalAt,
		Session:    session,
		CostRate:   c.Strategy.CostRate,
	}
	if err := p.Validate(); err != nil {
		return engine.Params{}, err
	}
	return p, nil
}
