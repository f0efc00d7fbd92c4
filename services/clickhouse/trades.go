package clickhouse

import (
	"context"
	"fmt"
	"time"

	"orb-backtest/services/engine"
)

func tradeTableDDL(database, table string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.%s (
			date Date,
			entry_time DateTime,
			entry_price Float64,
			exit_time DateTime,
			exit_price Float64,
			signal Int8,
			gross_pnl Float64,
			net_pnl Float64,
			ingested_at DateTime64(3),
			version UInt64
		)
		ENGINE = ReplacingMergeTree(version)
		ORDER BY (date)
		SETTINGS index_granularity = 8192
	`, database, table)
}

// EnsureTradeSchema creates the database and trade table if absent.
func (c *Client) EnsureTradeSchema(ctx context.Context) error {
	if err := c.ensureDatabase(ctx); err != nil {
		return err
	}
	return c.conn.Exec(ctx, tradeTableDDL(c.cfg.Database, c.cfg.Table))
}

// InsertTrades batch-inserts trades with dedup on. All rows of one call
// share a version; ReplacingMergeTree keeps the latest on re-install.
func (c *Client) InsertTrades(ctx context.Context, trades []engine.Trade) (int, error) {
	if len(trades) == 0 {
		return 0, nil
	}

	batch, err := c.conn.PrepareBatch(ctx,
		fmt.Sprintf("INSERT INTO %s.%s SETTINGS insert_deduplicate=1", c.cfg.Database, c.cfg.Table))
	if err != nil {
		return 0, fmt.Errorf("prepare batch: %w", err)
	}

	now := time.Now().UTC()
	ver := uint64(now.UnixNano())

	for _, t := range trades {
		if err := batch.Append(
			t.Date,
			t.EntryTime,
			t.EntryPrice,
			t.ExitTime,
			t.ExitPrice,
			int8(t.Signal),
			t.GrossPnl,
			t.NetPnl,
			now,
			ver,
		); err != nil {
			return 0, fmt.Errorf("batch append: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("batch send: %w", err)
	}
	return len(trades), nil
}

// TradeCount returns the table's current row count.
func (c *Client) TradeCount(ctx context.Context) (uint64, error) {
	var count uint64
	q := fmt.Sprintf("SELECT count() FROM %s.%s", c.cfg.Database, c.cfg.Table)
	if err := c.conn.QueryRow(ctx, q).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
