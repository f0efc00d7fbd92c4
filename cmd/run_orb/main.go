// Command run_orb executes the opening-range breakout backtest over a
// tick CSV: resample to bars, classify the signal candle, build at most
// one trade per day and write the trade table plus a JSON run report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"orb-backtest/services/clickhouse"
	"orb-backtest/services/config"
	"orb-backtest/services/csvio"
	"orb-backtest/services/engine"
	"orb-backtest/services/report"
	"orb-backtest/services/saver"
)

func main() {
	inputPath := flag.String("input", "", "Path to tick CSV (defaults to paths.input from config)")
	outputPath := flag.String("output", "", "Output CSV for trades (defaults to paths.output)")
	reportPath := flag.String("report", "", "Output JSON run report (defaults to paths.report)")
	configPath := flag.String("config", "", "Path to config.yaml (otherwise ./config.yaml or ./configs/config.yaml)")
	barsPath := flag.String("bars", "", "Optional path to also export the resampled bars")
	barsFormat := flag.String("format", "", "Bar export format: csv, json or parquet (defaults to export.format)")
	installCH := flag.Bool("ch", false, "Install trades into ClickHouse (also enabled via clickhouse.enabled)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error loading config:", err)
		os.Exit(1)
	}
	if strings.TrimSpace(*inputPath) == "" {
		*inputPath = cfg.Paths.Input
	}
	if strings.TrimSpace(*outputPath) == "" {
		*outputPath = cfg.Paths.Output
	}
	if strings.TrimSpace(*reportPath) == "" {
		*reportPath = cfg.Paths.Report
	}
	if strings.TrimSpace(*barsFormat) == "" {
		*barsFormat = cfg.Export.Format
	}
	if strings.TrimSpace(*barsPath) == "" {
		*barsPath = cfg.Export.Bars
	}

	params, err := cfg.Params()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error in strategy config:", err)
		os.Exit(1)
	}
	if *barsPath != "" && saver.NewBarSaver(*barsFormat) == nil {
		fmt.Fprintf(os.Stderr, "error: unsupported bar format %q (use: csv, json, parquet)\n", *barsFormat)
		os.Exit(1)
	}

	console := report.NewConsole(os.Stdout)
	rec := report.NewRecorder()
	rep := report.Multi(console, rec)

	start := time.Now()

	loadStart := time.Now()
	ticks, dropped, err := csvio.ReadTicks(*inputPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error loading ticks:", err)
		os.Exit(1)
	}
	rep.StageDone(engine.StageLoad, time.Since(loadStart))
	rep.Count(engine.CountRows, len(ticks))
	rep.Count(engine.CountDropped, dropped)

	res, err := engine.Run(ticks, params, rep)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error running backtest:", err)
		os.Exit(1)
	}

	if err := csvio.WriteTrades(*outputPath, res.Trades); err != nil {
		fmt.Fprintln(os.Stderr, "error writing trades:", err)
		os.Exit(1)
	}
	console.TradesPreview(res.Trades, 5)

	if *barsPath != "" {
		s := saver.NewBarSaver(*barsFormat)
		if err := s.Save(saver.FromBars(res.Bars), *barsPath); err != nil {
			fmt.Fprintln(os.Stderr, "error exporting bars:", err)
			os.Exit(1)
		}
		fmt.Printf("Exported %d bars to %s\n", len(res.Bars), *barsPath)
	}

	if *installCH || cfg.ClickHouse.Enabled {
		if err := installTrades(cfg, res.Trades); err != nil {
			fmt.Fprintln(os.Stderr, "error installing trades:", clickhouse.ExplainError(err))
			os.Exit(1)
		}
	}

	runReport := report.Build(*inputPath, *outputPath, params, res, dropped, rec)
	if err := report.WriteRunReport(*reportPath, runReport); err != nil {
		fmt.Fprintln(os.Stderr, "error writing run report:", err)
		os.Exit(1)
	}

	console.TotalTime(time.Since(start))
}

func installTrades(cfg *config.Config, trades []engine.Trade) error {
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

	if err := client.EnsureTradeSchema(ctx); err != nil {
		return err
	}
	n, err := client.InsertTrades(ctx, trades)
	if err != nil {
		return err
	}
	fmt.Printf("Installed %d trades into %s.%s\n", n, cfg.ClickHouse.Database, cfg.ClickHouse.Table)
	return nil
}
