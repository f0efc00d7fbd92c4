package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"orb-backtest/services/engine"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("explicit missing file should fail")
	}

	// With no explicit path and no config.yaml around, defaults apply.
	wd, _ := os.Getwd()
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load with defaults: %v", err)
	}
	if cfg.Strategy.IntervalMinutes != 5 {
		t.Errorf("IntervalMinutes = %d, want 5", cfg.Strategy.IntervalMinutes)
	}
	if cfg.Strategy.SignalTime != "09:25" {
		t.Errorf("SignalTime = %q, want 09:25", cfg.Strategy.SignalTime)
	}
	if cfg.Strategy.CostRate != 0.0012 {
		t.Errorf("CostRate = %v, want 0.0012", cfg.Strategy.CostRate)
	}
	if cfg.ClickHouse.Enabled {
		t.Error("ClickHouse should be disabled by default")
	}
	if cfg.Export.Format != "csv" {
		t.Errorf("Export.Format = %q, want csv", cfg.Export.Format)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := writeConfig(t, `
environment: prod
paths:
  input: data/nifty.csv
  output: out/t.csv
strategy:
  interval_minutes: 15
  signal_time: "09:20"
  cost_rate: 0.002
clickhouse:
  enabled: true
  addr: ch1:9000
server:
  workers: 8
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Environment != "prod" {
		t.Errorf("Environment = %q", cfg.Environment)
	}
	if cfg.Paths.Input != "data/nifty.csv" {
		t.Errorf("Paths.Input = %q", cfg.Paths.Input)
	}
	if cfg.Strategy.IntervalMinutes != 15 || cfg.Strategy.SignalTime != "09:20" {
		t.Errorf("strategy overrides not applied: %+v", cfg.Strategy)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Strategy.SessionClose != "15:15" {
		t.Errorf("SessionClose = %q, want default 15:15", cfg.Strategy.SessionClose)
	}
	if !cfg.ClickHouse.Enabled || cfg.ClickHouse.Addr != "ch1:9000" {
		t.Errorf("clickhouse overrides not applied: %+v", cfg.ClickHouse)
	}
	if cfg.ClickHouse.Database != "backtest" {
		t.Errorf("Database = %q, want default backtest", cfg.ClickHouse.Database)
	}
	if cfg.Server.Workers != 8 {
		t.Errorf("Server.Workers = %d", cfg.Server.Workers)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":8080\"\n")
	t.Setenv("ORB_SERVER_ADDR", ":9999")
	t.Setenv("ORB_STRATEGY_INTERVAL_MINUTES", "15")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("Server.Addr = %q, want env override :9999", cfg.Server.Addr)
	}
	if cfg.Strategy.IntervalMinutes != 15 {
		t.Errorf("IntervalMinutes = %d, want env override 15", cfg.Strategy.IntervalMinutes)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "strategy: [not a map\n")
	if _, err := Load(path); err == nil {
		t.Fatal("malformed yaml should fail")
	}
}

func TestParamsFromDefaults(t *testing.T) {
	wd, _ := os.Getwd()
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	p, err := cfg.Params()
	if err != nil {
		t.Fatalf("Params: %v", err)
	}
	if p.Interval != 5*time.Minute {
		t.Errorf("Interval = %v", p.Interval)
	}
	if p.SignalTime != engine.MinuteOfDay(9*60+25) {
		t.Errorf("SignalTime = %v", p.SignalTime)
	}
	if p.Session.Open != engine.MinuteOfDay(9*60+30) || p.Session.Close != engine.MinuteOfDay(15*60+15) {
		t.Errorf("Session = %+v", p.Session)
	}
	if p.CostRate != 0.0012 {
		t.Errorf("CostRate = %v", p.CostRate)
	}
}

func TestParamsRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*Config)
	}{
		{"zero interval", func(c *Config) { c.Strategy.IntervalMinutes = 0 }},
		{"bad signal time", func(c *Config) { c.Strategy.SignalTime = "9am" }},
		{"bad session open", func(c *Config) { c.Strategy.SessionOpen = "25:00" }},
		{"inverted session", func(c *Config) {
			c.Strategy.SessionOpen = "15:30"
			c.Strategy.SessionClose = "09:30"
		}},
		{"negative cost", func(c *Config) { c.Strategy.CostRate = -0.01 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{Strategy: StrategyConfig{
				IntervalMinutes: 5,
				SignalTime:      "09:25",
				SessionOpen:     "09:30",
				SessionClose:    "15:15",
				CostRate:        0.0012,
			}}
			tc.mod(&cfg)
			if _, err := cfg.Params(); err == nil {
				t.Fatal("want error")
			}
		})
	}
}
