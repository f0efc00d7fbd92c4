// Package report turns pipeline events and results into human output,
// structured logs and the JSON run artifact. The engine only ever hands
// over plain data; everything presentational lives here.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"orb-backtest/services/engine"
)

var stageLabels = map[string]string{
	engine.StageLoad:     "Data loading",
	engine.StageResample: "Bar resampling",
	engine.StageClassify: "Signal identification",
	engine.StageSignals:  "Signal generation",
	engine.StageTrades:   "Trade identification",
	engine.StageEvaluate: "Performance calculation",
}

// Console narrates a run to w in the classic batch-report style: one
// line per stage, counts as they become known, then a banner with the
// performance summary.
type Console struct {
	w io.Writer
}

func NewConsole(w io.Writer) *Console { return &Console{w: w} }

func (c *Console) StageDone(stage string, elapsed time.Duration) {
	label, ok := stageLabels[stage]
	if !ok {
		label = stage
	}
	fmt.Fprintf(c.w, "%s completed in %.2f seconds\n", label, elapsed.Seconds())
}

func (c *Console) Count(name string, n int) {
	switch name {
	case engine.CountRows:
		fmt.Fprintf(c.w, "Loaded %d rows\n", n)
	case engine.CountDropped:
		if n > 0 {
			fmt.Fprintf(c.w, "Dropped %d rows with unparsable dates\n", n)
		}
	case engine.CountBars:
		fmt.Fprintf(c.w, "Created %d bars\n", n)
	case engine.CountGaps:
		if n > 0 {
			fmt.Fprintf(c.w, "Detected %d intraday gaps\n", n)
		}
	case engine.CountSignalDays:
		fmt.Fprintf(c.w, "Found %d signal days\n", n)
	case engine.CountSignals:
		fmt.Fprintf(c.w, "Generated %d trading signals\n", n)
	case engine.CountTrades:
		fmt.Fprintf(c.w, "Identified %d trades\n", n)
	default:
		fmt.Fprintf(c.w, "%s: %d\n", name, n)
	}
}

func (c *Console) Summarize(s engine.Summary) {
	bar := strings.Repeat("=", 50)
	money := func(v float64) string { return decimal.NewFromFloat(v).StringFixed(2) }
	ratio := func(v float64) string { return decimal.NewFromFloat(v).StringFixed(4) }

	fmt.Fprintf(c.w, "\n%s\n", bar)
	fmt.Fprintln(c.w, "TRADING STRATEGY RESULTS")
	fmt.Fprintln(c.w, bar)
	fmt.Fprintf(c.w, "Total Trades: %d\n", s.TotalTrades)
	fmt.Fprintf(c.w, "Total PnL: %s\n", money(s.TotalPnl))
	fmt.Fprintf(c.w, "Max Drawdown: %s\n", money(s.MaxDrawdown))
	fmt.Fprintf(c.w, "Sharpe Ratio: %s\n", ratio(s.SharpeRatio))
	fmt.Fprintf(c.w, "Calmar Ratio: %s\n", ratio(s.CalmarRatio))
	fmt.Fprintf(c.w, "Win Rate: %s%%\n", decimal.NewFromFloat(s.WinRate).StringFixed(1))
	fmt.Fprintf(c.w, "Average Win: %s\n", money(s.AvgWin))
	fmt.Fprintf(c.w, "Average Loss: %s\n", money(s.AvgLoss))
	fmt.Fprintf(c.w, "Profitable Trades: %d\n", s.Wins)
	fmt.Fprintf(c.w, "Losing Trades: %d\n", s.Losses)
}

// TradesPreview prints up to n leading trades, matching the summary's
// two-decimal money rendering.
func (c *Console) TradesPreview(trades []engine.Trade, n int) {
	if len(trades) == 0 {
		return
	}
	if n > len(trades) {
		n = len(trades)
	}
	fmt.Fprintf(c.w, "\nFirst %d Trades:\n", n)
	for i, t := range trades[:n] {
		fmt.Fprintf(c.w, "%d. Date: %s, Signal: %d, Entry: %s, Exit: %s, PnL: %s\n",
			i+1,
			t.Date.Format("2006-01-02"),
			t.Signal,
			decimal.NewFromFloat(t.EntryPrice).StringFixed(2),
			decimal.NewFromFloat(t.ExitPrice).StringFixed(2),
			decimal.NewFromFloat(t.NetPnl).StringFixed(2),
		)
	}
}

// TotalTime closes the narrative with the whole run's wall time.
func (c *Console) TotalTime(d time.Duration) {
	fmt.Fprintf(c.w, "\nTotal Execution Time: %.2f seconds\n", d.Seconds())
}
