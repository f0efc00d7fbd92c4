// Command resample_csv turns a tick CSV into interval bars without
// running the strategy. Output format follows the file extension
// unless -format says otherwise; -ch additionally installs the bars
// into ClickHouse.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"orb-backtest/services/clickhouse"
	"orb-backtest/services/config"
	"orb-backtest/services/csvio"
	"orb-backtest/services/engine"
	"orb-backtest/services/saver"
)

func main() {
	in := flag.String("in", "", "Input tick CSV")
	out := flag.String("out", "", "Output bar file (csv, json or parquet)")
	interval := flag.Int("interval", 5, "Bucket width in minutes")
	format := flag.String("format", "", "Output format (default: from -out extension)")
	installCH := flag.Bool("ch", false, "Also install bars into ClickHouse")
	chTable := flag.String("ch-table", "", "ClickHouse bar table (default bars_<interval>m)")
	configPath := flag.String("config", "", "Config file for ClickHouse credentials")
	flag.Parse()

	if strings.TrimSpace(*in) == "" || strings.TrimSpace(*out) == "" {
		fmt.Fprintln(os.Stderr, "error: -in and -out are required")
		os.Exit(1)
	}
	if *interval < 1 {
		fmt.Fprintln(os.Stderr, "error: -interval must be at least 1 minute")
		os.Exit(1)
	}
	if strings.TrimSpace(*format) == "" {
		*format = strings.TrimPrefix(filepath.Ext(*out), ".")
	}
	s := saver.NewBarSaver(*format)
	if s == nil {
		fmt.Fprintf(os.Stderr, "error: unsupported format %q (use: csv, json, parquet)\n", *format)
		os.Exit(1)
	}

	ticks, dropped, err := csvio.ReadTicks(*in)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error loading ticks:", err)
		os.Exit(1)
	}
	if dropped > 0 {
		fmt.Printf("Dropped %d rows with unparsable dates\n", dropped)
	}

	sort.SliceStable(ticks, func(i, j int) bool { return ticks[i].Ts.Before(ticks[j].Ts) })
	width := time.Duration(*interval) * time.Minute
	bars := engine.Resample(ticks, width)
	if gaps := engine.DetectGaps(bars, width); len(gaps) > 0 {
		fmt.Printf("Detected %d intraday gaps\n", len(gaps))
	}

	if err := s.Save(saver.FromBars(bars), *out); err != nil {
		fmt.Fprintln(os.Stderr, "error saving bars:", err)
		os.Exit(1)
	}
	fmt.Printf("Resampled %d ticks into %d bars (%dm) -> %s\n", len(ticks), len(bars), *interval, *out)

	if *installCH {
		if err := installBars(*configPath, *chTable, *interval, bars); err != nil {
			fmt.Fprintln(os.Stderr, "error installing bars:", clickhouse.ExplainError(err))
			os.Exit(1)
		}
	}
}

func installBars(configPath, table string, interval int, bars []engine.Bar) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if strings.TrimSpace(table) == "" {
		table = fmt.Sprintf("bars_%dm", interval)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := clickhouse.Connect(ctx, clickhouse.Config{
		Addr:     cfg.ClickHouse.Addr,
		Database: cfg.ClickHouse.Database,
		Username: cfg.ClickHouse.Username,
		Password: cfg.ClickHouse.Password,
		Table:    cfg.ClickHouse.Table,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.EnsureBarSchema(ctx, table); err != nil {
		return err
	}
	n, err := client.InsertBars(ctx, table, bars)
	if err != nil {
		return err
	}
	fmt.Printf("Installed %d bars into %s.%s\n", n, cfg.ClickHouse.Database, table)
	return nil
}
