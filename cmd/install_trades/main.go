// Command install_trades loads a trade CSV produced by run_orb into
// ClickHouse. Connection settings come from the environment (or a .env
// file), so it can run from cron next to the backtest itself.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"orb-backtest/services/clickhouse"
	"orb-backtest/services/csvio"
)

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func loadCfg() clickhouse.Config {
	return clickhouse.Config{
		Addr:     getEnv("CH_ADDR", "localhost:9000"),
		Database: getEnv("CH_DATABASE", "backtest"),
		Username: getEnv("CH_USER", "default"),
		Password: getEnv("CH_PASSWORD", ""),
		Table:    getEnv("CH_TABLE", "trades"),
	}
}

func main() {
	inputPath := flag.String("input", "output/trades.csv", "Trade CSV to install")
	envFile := flag.String("env", "", "Optional .env file with CH_* settings")
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			fmt.Fprintln(os.Stderr, "error loading env file:", err)
			os.Exit(1)
		}
	} else {
		_ = godotenv.Load() // best-effort
	}
	cfg := loadCfg()

	trades, err := csvio.ReadTrades(*inputPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error loading trades:", err)
		os.Exit(1)
	}
	if len(trades) == 0 {
		fmt.Println("No trades to install.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := clickhouse.Connect(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error connecting:", clickhouse.ExplainError(err))
		os.Exit(1)
	}
	defer client.Close()

	if err := client.EnsureTradeSchema(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error ensuring schema:", clickhouse.ExplainError(err))
		os.Exit(1)
	}
	n, err := client.InsertTrades(ctx, trades)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error inserting trades:", clickhouse.ExplainError(err))
		os.Exit(1)
	}
	fmt.Printf("Installed %d trades into %s.%s\n", n, cfg.Database, cfg.Table)

	if count, err := client.TradeCount(ctx); err == nil {
		fmt.Printf("Table now holds %d rows\n", count)
	}
}
