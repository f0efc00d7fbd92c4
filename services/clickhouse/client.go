// Package clickhouse persists run output (trades and resampled bars)
// into ClickHouse with dedup-safe batch inserts.
package clickhouse

import (
	"context"
	"errors"
	"fmt"

	clickhouse "github.com/ClickHouse/clickhouse-go/v2"
	chproto "github.com/ClickHouse/clickhouse-go/v2/lib/proto"
)

type Config struct {
	Addr     string
	Database string
	Username string
	Password string
	Table    string
}

// Client wraps a native-protocol connection plus the target database
// and table names.
type Client struct {
	conn clickhouse.Conn
	cfg  Config
}

// Connect opens and pings a native connection.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": uint64(0),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	return &Client{conn: conn, cfg: cfg}, nil
}

func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) ensureDatabase(ctx context.Context) error {
	ddl := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", c.cfg.Database)
	if err := c.conn.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	return nil
}

// ExplainError expands ClickHouse server exceptions into a readable
// one-liner; other errors pass through unchanged.
func ExplainError(err error) string {
	var ex *chproto.Exception
	if errors.As(err, &ex) {
		return fmt.Sprintf("ClickHouse [%d] %s (%s)", ex.Code, ex.Message, ex.Name)
	}
	return err.Error()
}
