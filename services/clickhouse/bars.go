package clickhouse

import (
	"context"
	"fmt"
	"time"

	"orb-backtest/services/engine"
)

func barTableDDL(database, table string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.%s (
			ts DateTime,
			open Float64,
			high Float64,
			low Float64,
			close Float64,
			volume Float64,
			signal Int8,
			ingested_at DateTime64(3),
			version UInt64
		)
		ENGINE = ReplacingMergeTree(version)
		ORDER BY (ts)
		SETTINGS index_granularity = 8192
	`, database, table)
}

// EnsureBarSchema creates the database and the named bar table if
// absent. Bars live in their own table, so the name is explicit rather
// than taken from the config.
func (c *Client) EnsureBarSchema(ctx context.Context, table string) error {
	if err := c.ensureDatabase(ctx); err != nil {
		return err
	}
	return c.conn.Exec(ctx, barTableDDL(c.cfg.Database, table))
}

// InsertBars batch-inserts resampled bars with dedup on.
func (c *Client) InsertBars(ctx context.Context, table string, bars []engine.Bar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	batch, err := c.conn.PrepareBatch(ctx,
		fmt.Sprintf("INSERT INTO %s.%s SETTINGS insert_deduplicate=1", c.cfg.Database, table))
	if err != nil {
		return 0, fmt.Errorf("prepare batch: %w", err)
	}

	now := time.Now().UTC()
	ver := uint64(now.UnixNano())

	for _, b := range bars {
		if err := batch.Append(
			b.Ts,
			b.Open,
			b.High,
			b.Low,
			b.Close,
			b.Volume,
			int8(b.Signal),
			now,
			ver,
		); err != nil {
			return 0, fmt.Errorf("batch append: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("batch send: %w", err)
	}
	return len(bars), nil
}
